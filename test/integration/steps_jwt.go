package integration

import (
	"fmt"
	"time"

	"github.com/cucumber/godog"
	"github.com/golang-jwt/jwt/v5"

	"github.com/doodlesbykumbi/devicehub/pkg/server/middleware"
)

func (s *StepsContext) registerAuthSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I am authenticated as "([^"]*)"$`, s.iAmAuthenticatedAs)
	sc.Step(`^I am not authenticated$`, s.iAmNotAuthenticated)
	sc.Step(`^I use an expired token for "([^"]*)"$`, s.iUseAnExpiredToken)
	sc.Step(`^I use a token signed with another key$`, s.iUseATokenSignedWithAnotherKey)
	sc.Step(`^the response should ask for a bearer token$`, s.theResponseShouldAskForABearerToken)
}

func (s *StepsContext) iAmAuthenticatedAs(subject string) error {
	token, err := middleware.IssueToken(s.tc.SigningKey, subject, time.Hour, time.Now())
	if err != nil {
		return err
	}
	s.authToken = token
	return nil
}

func (s *StepsContext) iAmNotAuthenticated() error {
	s.authToken = ""
	return nil
}

func (s *StepsContext) iUseAnExpiredToken(subject string) error {
	token, err := middleware.IssueToken(s.tc.SigningKey, subject, time.Minute, time.Now().Add(-time.Hour))
	if err != nil {
		return err
	}
	s.authToken = token
	return nil
}

func (s *StepsContext) iUseATokenSignedWithAnotherKey() error {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "devicehub",
		Subject:   "mallory",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("some-other-key"))
	if err != nil {
		return err
	}
	s.authToken = signed
	return nil
}

func (s *StepsContext) theResponseShouldAskForABearerToken() error {
	if s.response == nil {
		return fmt.Errorf("no response received")
	}
	if got := s.response.Header.Get("WWW-Authenticate"); got == "" {
		return fmt.Errorf("expected a WWW-Authenticate header")
	}
	return nil
}

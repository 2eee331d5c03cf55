package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doodlesbykumbi/devicehub/pkg/logging"
	"github.com/doodlesbykumbi/devicehub/pkg/model"
	"github.com/doodlesbykumbi/devicehub/pkg/store"
)

// UserResolver maps a source user reference to an internal user id.
type UserResolver interface {
	ResolveUser(ctx context.Context, companyID uint, externalRef string, details *model.SourceUser) (uint, error)
}

// Engine reconciles incoming device records for one company against the
// stored inventory.
type Engine struct {
	resolver  UserResolver
	devices   store.DeviceStore
	changeLog store.ChangeLogStore
	tx        store.Transactor
	now       func() time.Time
}

// NewEngine creates an Engine over the device, change log and optional
// transaction stores in stores.
func NewEngine(stores store.Stores, resolver UserResolver) *Engine {
	return &Engine{
		resolver:  resolver,
		devices:   stores.Devices,
		changeLog: stores.ChangeLog,
		tx:        stores.Tx,
		now:       time.Now,
	}
}

// Reconcile processes devices strictly in order, committing each device's
// writes before moving to the next. Per-device failures are collected in the
// Result and never stop the batch.
//
// The returned error is non-nil in two cases only: the context ended, in
// which case the Result covers the devices processed so far, or every
// attempted device failed because the store was unreachable.
func (e *Engine) Reconcile(ctx context.Context, companyID uint, devices []model.Device) (Result, error) {
	log := logging.FromContext(ctx).With().Uint("company_id", companyID).Logger()

	var (
		res         Result
		unavailable int
	)
	for i := range devices {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Int("remaining", len(devices)-i).Msg("reconciliation interrupted")
			return res, err
		}

		device := devices[i]
		status, recErr := e.reconcileDevice(ctx, companyID, &device)
		if recErr != nil {
			res.Failed++
			res.Failures = append(res.Failures, *recErr)
			if errors.Is(recErr.Err, store.ErrUnavailable) {
				unavailable++
			}
			log.Error().Err(recErr.Err).
				Str("device_id", recErr.DeviceID).
				Str("stage", string(recErr.Stage)).
				Msg("device reconciliation failed")
			continue
		}

		res.record(status)
		log.Debug().Str("device_id", device.DeviceID).Stringer("status", status).Msg("device reconciled")
	}

	if len(devices) > 0 && unavailable == len(devices) {
		return res, fmt.Errorf("reconcile company %d: %w", companyID, store.ErrUnavailable)
	}
	return res, nil
}

func (e *Engine) reconcileDevice(ctx context.Context, companyID uint, device *model.Device) (Status, *RecordError) {
	fail := func(stage Stage, err error) (Status, *RecordError) {
		return 0, &RecordError{DeviceID: device.DeviceID, CompanyID: companyID, Stage: stage, Err: err}
	}

	if device.CompanyID == 0 {
		device.CompanyID = companyID
	}
	if device.CompanyID != companyID {
		return fail(StageValidate, fmt.Errorf("%w: device belongs to company %d", model.ErrInvalidDevice, device.CompanyID))
	}
	if err := device.Validate(); err != nil {
		return fail(StageValidate, err)
	}

	userID, err := e.resolver.ResolveUser(ctx, companyID, device.UserRef(), device.SourceUser)
	if err != nil {
		return fail(StageResolve, err)
	}
	device.UserID = userID

	stored, err := e.devices.FindDevice(ctx, companyID, device.DeviceID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		stored = nil
	case err != nil:
		return fail(StageLookup, err)
	}

	outcome := DetectChange(device, stored)
	now := e.now().UTC()

	switch outcome.Status {
	case StatusNew:
		device.ID = 0
		device.LastUpdated = &now
		device.LastUpdatedDesc = ""
		if err := e.devices.CreateDevice(ctx, device); err != nil {
			return fail(StageInsert, err)
		}
	case StatusChanged:
		device.ID = stored.ID
		device.LastUpdated = &now
		device.LastUpdatedDesc = outcome.DiffText
		entry := &model.DeviceChangeLog{
			DeviceID:   stored.ID,
			UpdateTime: now,
			UpdateText: outcome.DiffText,
		}
		if stage, err := e.writeUpdate(ctx, device, entry); err != nil {
			return fail(stage, err)
		}
	}
	return outcome.Status, nil
}

// writeUpdate persists a changed device together with its change log entry,
// inside one transaction when a Transactor is available.
func (e *Engine) writeUpdate(ctx context.Context, device *model.Device, entry *model.DeviceChangeLog) (Stage, error) {
	stage := StageUpdate
	write := func(devices store.DeviceStore, changeLog store.ChangeLogStore) error {
		stage = StageUpdate
		if err := devices.UpdateDevice(ctx, device); err != nil {
			return err
		}
		stage = StageChangeLog
		return changeLog.AppendChangeLog(ctx, entry)
	}

	if e.tx == nil {
		return stage, write(e.devices, e.changeLog)
	}
	err := e.tx.InTx(ctx, func(tx store.Stores) error {
		return write(tx.Devices, tx.ChangeLog)
	})
	return stage, err
}

package secrets

import "context"

type contextKey struct{}

// WithCipher returns a context carrying c. The gorm model hooks read the
// cipher from the statement context.
func WithCipher(ctx context.Context, c Cipher) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the cipher stored by WithCipher, or nil.
func FromContext(ctx context.Context) Cipher {
	if ctx == nil {
		return nil
	}
	c, _ := ctx.Value(contextKey{}).(Cipher)
	return c
}

// Package instapi wires configuration, the session cache and the HTTP client
// into a models.Binding.
package instapi

import (
	"context"
	"errors"
	"fmt"

	"instapi/pkg/config"
	"instapi/pkg/instagram"
	"instapi/pkg/logger"
	"instapi/pkg/models"
	"instapi/pkg/session"
)

// ErrMissingCredentials is returned by Bind when the username or the
// password is empty.
var ErrMissingCredentials = errors.New("both username and password should be passed")

type options struct {
	store      session.Store
	log        logger.Logger
	clientOpts []instagram.Option
}

// Option customizes Bind.
type Option func(*options)

// WithStore replaces the session cache selected by the configuration.
func WithStore(s session.Store) Option {
	return func(o *options) { o.store = s }
}

// WithLogger sets the logger handed to the client.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClientOptions forwards options to instagram.NewClient.
func WithClientOptions(opts ...instagram.Option) Option {
	return func(o *options) { o.clientOpts = append(o.clientOpts, opts...) }
}

// Bind authenticates the account named in cfg. A cached session for the same
// credentials is reused when it is still valid; otherwise a fresh login is
// performed. The resulting session is written back to the cache either way.
func Bind(ctx context.Context, cfg *config.Config, opts ...Option) (models.Binding, *instagram.Client, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	creds := session.Credentials{
		Username: cfg.Instagram.Username,
		Password: cfg.Instagram.Password,
	}
	if creds.Username == "" || creds.Password == "" {
		return models.Unbound(), nil, ErrMissingCredentials
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.GetLogger()
	}
	log := o.log.WithField("username", creds.Username)
	if o.store == nil {
		store, err := session.FromConfig(cfg.Session)
		if err != nil {
			return models.Unbound(), nil, err
		}
		o.store = store
	}

	client, err := resume(ctx, cfg, creds, o, log)
	if err != nil {
		return models.Unbound(), nil, err
	}
	if client == nil {
		if client, err = instagram.NewClient(cfg, o.log, o.clientOpts...); err != nil {
			return models.Unbound(), nil, err
		}
		if err := client.Login(ctx, creds.Username, creds.Password); err != nil {
			return models.Unbound(), nil, fmt.Errorf("login: %w", err)
		}
	}

	blob, err := client.ExportSession()
	if err == nil {
		err = o.store.Put(creds, blob)
	}
	if err != nil {
		log.WithError(err).Warn("failed to cache session")
	}
	return models.Bind(client), client, nil
}

// resume returns a client restored from the cache, or nil when there is no
// usable cached session.
func resume(ctx context.Context, cfg *config.Config, creds session.Credentials, o options, log logger.Logger) (*instagram.Client, error) {
	blob, err := o.store.Get(creds)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			log.WithError(err).Warn("failed to read cached session")
		}
		return nil, nil
	}

	client, err := instagram.NewClient(cfg, o.log, o.clientOpts...)
	if err != nil {
		return nil, err
	}
	if err := client.ImportSession(blob); err != nil {
		log.WithError(err).Warn("discarding unreadable cached session")
		return nil, nil
	}
	if err := client.Verify(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.WithError(err).Info("cached session expired")
		return nil, nil
	}
	log.Debug("resumed cached session")
	return client, nil
}

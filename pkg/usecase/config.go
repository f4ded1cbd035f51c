package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/onnxify/pkg/domain/interfaces"
	"github.com/m-mizutani/onnxify/pkg/domain/model"
	"github.com/m-mizutani/onnxify/pkg/domain/types"
)

// ConfigSource holds the static inputs of configuration resolution
type ConfigSource struct {
	SystemToken         types.Token
	AuthorName          string // Overrides the identity lookup for the system token
	TransformersVersion string
	HubBaseURL          string
	ArchiveBaseURL      string
	RepoPath            string
}

type configLoader struct {
	hub interfaces.HubClient
	src ConfigSource
}

// NewConfigLoader creates a new instance of ConfigLoader
func NewConfigLoader(hub interfaces.HubClient, src ConfigSource) interfaces.ConfigLoader {
	return &configLoader{
		hub: hub,
		src: src,
	}
}

// Load resolves token and account name. A user token wins over the system token and
// its account is always looked up; the system token's account comes from AuthorName
// when set.
func (x *configLoader) Load(ctx context.Context, userToken types.Token) (*model.Config, error) {
	logger := ctxlog.From(ctx)

	var (
		token    types.Token
		username string
	)

	switch {
	case !userToken.IsEmpty():
		name, err := x.hub.WhoAmI(ctx, userToken)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to resolve account of user token", goerr.T(types.ErrTagConfig))
		}
		token, username = userToken, name
		logger.Debug("Using user token", "username", username)

	case !x.src.SystemToken.IsEmpty():
		token, username = x.src.SystemToken, x.src.AuthorName
		if username == "" {
			name, err := x.hub.WhoAmI(ctx, token)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to resolve account of system token", goerr.T(types.ErrTagConfig))
			}
			username = name
		}
		logger.Debug("Using system token", "username", username)

	default:
		return nil, goerr.New("HF_TOKEN must be set", goerr.T(types.ErrTagConfig))
	}

	return &model.Config{
		Token:               token,
		Username:            username,
		TransformersVersion: x.src.TransformersVersion,
		HubBaseURL:          x.src.HubBaseURL,
		ArchiveBaseURL:      x.src.ArchiveBaseURL,
		RepoPath:            x.src.RepoPath,
	}, nil
}

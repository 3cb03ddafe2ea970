package providers

import (
	"pagegen/core"
	"pagegen/logging"
)

// Gateway bundles the four provider clients behind one constructor.
// It holds no state of its own beyond the credential store reference each
// client shares.
type Gateway struct {
	Images  *ImageJobClient
	Text    *TextClient
	Search  *SearchClient
	Hosting *HostClient
}

// NewGateway wires all provider clients against the same configuration and
// credential store.
func NewGateway(cfg *core.Config, credentials *core.CredentialStore, logger *logging.Logger) *Gateway {
	return &Gateway{
		Images:  NewImageJobClient(cfg, credentials, logger),
		Text:    NewTextClient(cfg, credentials, logger),
		Search:  NewSearchClient(cfg, credentials, logger),
		Hosting: NewHostClient(cfg, credentials, logger),
	}
}

package assistant

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/angelmondragon/storefront-bff/api/middleware"
	"github.com/angelmondragon/storefront-bff/api/responses"
	"github.com/angelmondragon/storefront-bff/api/validators"
	internalassistant "github.com/angelmondragon/storefront-bff/internal/assistant"
	pkgerrors "github.com/angelmondragon/storefront-bff/pkg/errors"
	"github.com/angelmondragon/storefront-bff/pkg/logger"
)

type Sender interface {
	Send(ctx context.Context, userID string, msg internalassistant.Message) (json.RawMessage, error)
}

// SendMessage relays a shopper message and returns the agent reply as data.
func SendMessage(client Sender, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "assistant is not configured"))
			return
		}

		var payload internalassistant.Message
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reply, err := client.Send(r.Context(), middleware.UserIDFromContext(r.Context()), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reply)
	}
}

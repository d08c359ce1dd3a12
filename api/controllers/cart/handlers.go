package cart

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-bff/api/controllers/cart/dto"
	"github.com/angelmondragon/storefront-bff/api/middleware"
	"github.com/angelmondragon/storefront-bff/api/responses"
	"github.com/angelmondragon/storefront-bff/api/validators"
	cartsvc "github.com/angelmondragon/storefront-bff/internal/cart"
	"github.com/angelmondragon/storefront-bff/pkg/backend"
	pkgerrors "github.com/angelmondragon/storefront-bff/pkg/errors"
	"github.com/angelmondragon/storefront-bff/pkg/logger"
)

type viewFunc func(ctx context.Context, caller backend.Caller) (*cartsvc.View, error)

type itemFunc func(ctx context.Context, caller backend.Caller, key string) (*cartsvc.View, error)

// CartView returns the grouped cart, loading it from the backend on first use.
func CartView(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return serveView(svc, logg, func(s cartsvc.Service) viewFunc { return s.View })
}

// CartRefresh discards local state and rebuilds the session from the backend.
func CartRefresh(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return serveView(svc, logg, func(s cartsvc.Service) viewFunc { return s.Load })
}

func CartToggleAll(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return serveView(svc, logg, func(s cartsvc.Service) viewFunc { return s.ToggleAll })
}

func CartToggleItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload dto.ToggleItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.ToggleItem(r.Context(), middleware.CallerFromContext(r.Context()), payload.ShopID, payload.ProductID, payload.SKUID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CartToggleShop(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		shopID := strings.TrimSpace(chi.URLParam(r, "shopId"))
		if shopID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "shopId is required"))
			return
		}

		view, err := svc.ToggleShop(r.Context(), middleware.CallerFromContext(r.Context()), shopID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CartIncrement(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return serveItem(svc, logg, func(s cartsvc.Service) itemFunc { return s.Increment })
}

func CartDecrement(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return serveItem(svc, logg, func(s cartsvc.Service) itemFunc { return s.Decrement })
}

func CartDelete(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return serveItem(svc, logg, func(s cartsvc.Service) itemFunc { return s.Delete })
}

// CartChangeVariant swaps the SKU or quantity of a row from the picker.
func CartChangeVariant(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		key, err := itemKey(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload dto.ChangeVariantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithCartKey(ctx, key)
		}
		view, err := svc.ChangeVariant(ctx, middleware.CallerFromContext(ctx), key, cartsvc.ChangeVariantInput{
			Selection: payload.Selection,
			Quantity:  payload.Quantity,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartAdd puts a product, or the SKU its selection resolves to, into the cart.
func CartAdd(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload dto.AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Add(r.Context(), middleware.CallerFromContext(r.Context()), cartsvc.AddItemInput{
			ProductID: strings.TrimSpace(payload.ProductID),
			Selection: payload.Selection,
			Quantity:  payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func serveView(svc cartsvc.Service, logg *logger.Logger, pick func(cartsvc.Service) viewFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		view, err := pick(svc)(r.Context(), middleware.CallerFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func serveItem(svc cartsvc.Service, logg *logger.Logger, pick func(cartsvc.Service) itemFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		key, err := itemKey(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithCartKey(ctx, key)
		}
		view, err := pick(svc)(ctx, middleware.CallerFromContext(ctx), key)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func itemKey(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "key")
	key, err := url.PathUnescape(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item key")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "item key is required")
	}
	return key, nil
}

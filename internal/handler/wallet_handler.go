package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/realbarber/rbc-wallet-bfa-go/internal/domain"
	"github.com/realbarber/rbc-wallet-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// openScreen starts a per-request screen for the authenticated caller.
func openScreen(svc *service.WalletService, r *http.Request) *service.Screen {
	return svc.Open(TokenFromContext(r.Context()), SessionFromContext(r.Context()))
}

func overviewHandler(svc *service.WalletService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/wallet/overview")
		defer span.End()

		screen := openScreen(svc, r)
		defer screen.Close()

		// Partial failures are part of the overview; only a rejected
		// token fails the whole request.
		if err := screen.Load(ctx); err != nil {
			var unauth *domain.ErrUnauthenticated
			if errors.As(err, &unauth) {
				handleServiceError(w, err, svc.Presenter(), logger)
				return
			}
			span.RecordError(err)
		}
		writeJSON(w, http.StatusOK, screen.State())
	}
}

func balanceHandler(svc *service.WalletService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/wallet/balance")
		defer span.End()

		screen := openScreen(svc, r)
		defer screen.Close()

		if err := screen.LoadBalance(ctx); err != nil {
			handleServiceError(w, err, svc.Presenter(), logger)
			return
		}
		writeJSON(w, http.StatusOK, screen.Balance())
	}
}

func historyHandler(svc *service.WalletService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/wallet/history")
		defer span.End()

		limit, page := parsePagination(r)
		span.SetAttributes(attribute.Int("history.limit", limit), attribute.Int("history.page", page))

		screen := openScreen(svc, r)
		defer screen.Close()
		screen.SetPage(limit, page)

		if err := screen.LoadHistory(ctx); err != nil {
			handleServiceError(w, err, svc.Presenter(), logger)
			return
		}
		state := screen.State()
		writeJSON(w, http.StatusOK, map[string]any{
			"entries":    state.History,
			"pagination": state.Pagination,
		})
	}
}

func historyDaysHandler(svc *service.WalletService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/wallet/history/days")
		defer span.End()

		screen := openScreen(svc, r)
		defer screen.Close()

		if err := screen.LoadHistory(ctx); err != nil {
			handleServiceError(w, err, svc.Presenter(), logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"days": screen.Buckets()})
	}
}

func entryHandler(svc *service.WalletService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/wallet/history/{entryId}")
		defer span.End()

		entryID := chi.URLParam(r, "entryId")
		span.SetAttributes(attribute.String("entry.id", entryID))

		screen := openScreen(svc, r)
		defer screen.Close()

		if err := screen.LoadHistory(ctx); err != nil {
			handleServiceError(w, err, svc.Presenter(), logger)
			return
		}
		entry, err := screen.Entry(entryID)
		if err != nil {
			handleServiceError(w, err, svc.Presenter(), logger)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

func recipientsHandler(svc *service.WalletService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/wallet/recipients")
		defer span.End()

		screen := openScreen(svc, r)
		defer screen.Close()

		if err := screen.LoadHistory(ctx); err != nil {
			handleServiceError(w, err, svc.Presenter(), logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"recipients": screen.Directory(r.URL.Query().Get("q")),
		})
	}
}

func threadHandler(svc *service.WalletService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/wallet/recipients/{partyId}/thread")
		defer span.End()

		partyID := chi.URLParam(r, "partyId")
		span.SetAttributes(attribute.String("party.id", partyID))

		screen := openScreen(svc, r)
		defer screen.Close()

		if err := screen.Load(ctx); err != nil {
			// The thread needs history; a missing balance only hides the
			// header amount. A rejected token fails it like the overview.
			var unauth *domain.ErrUnauthenticated
			if errors.As(err, &unauth) || screen.State().HistoryError != "" {
				handleServiceError(w, err, svc.Presenter(), logger)
				return
			}
			span.RecordError(err)
		}
		writeJSON(w, http.StatusOK, screen.Thread(partyID, r.URL.Query().Get("name")))
	}
}

func previewHandler(svc *service.WalletService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/wallet/preview")
		defer span.End()

		screen := openScreen(svc, r)
		defer screen.Close()

		if err := screen.LoadBalance(ctx); err != nil {
			handleServiceError(w, err, svc.Presenter(), logger)
			return
		}
		writeJSON(w, http.StatusOK, screen.Preview(r.URL.Query().Get("amount")))
	}
}

// transferBody is the composed transfer. Amount stays raw text so the
// wallet parser sees exactly what was typed ("1 000,5" included).
type transferBody struct {
	Amount       rawAmount `json:"amount"`
	ReceiverID   string    `json:"receiverId" validate:"max=128"`
	ReceiverType string    `json:"receiverType" validate:"omitempty,oneof=CLIENT EMPLOYEE client employee"`
	Note         string    `json:"note" validate:"max=500"`
}

// rawAmount accepts the amount as a JSON string or number.
type rawAmount string

func (a *rawAmount) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = rawAmount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a string or a number")
	}
	*a = rawAmount(n.String())
	return nil
}

func transferHandler(svc *service.WalletService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/wallet/transfers")
		defer span.End()

		var body transferBody
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&body); err != nil {
			handleServiceError(w, &domain.ErrValidation{Field: "body", Message: "invalid JSON"}, svc.Presenter(), logger)
			return
		}
		if err := validate.Struct(body); err != nil {
			handleServiceError(w, validationError(err), svc.Presenter(), logger)
			return
		}
		span.SetAttributes(attribute.String("receiver.id", body.ReceiverID))

		result, err := svc.Transfer(ctx, TokenFromContext(ctx), SessionFromContext(ctx), service.TransferCommand{
			Amount:       string(body.Amount),
			ReceiverID:   body.ReceiverID,
			ReceiverType: body.ReceiverType,
			Note:         body.Note,
		})
		if err != nil {
			span.RecordError(err)
			handleServiceError(w, err, svc.Presenter(), logger)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

// validationError converts the first validator failure to ErrValidation.
func validationError(err error) error {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		return &domain.ErrValidation{
			Field:   fieldName(fe.Field()),
			Message: fmt.Sprintf("failed on '%s'", fe.Tag()),
		}
	}
	return &domain.ErrValidation{Field: "body", Message: err.Error()}
}

func fieldName(f string) string {
	if f == "" {
		return f
	}
	return strings.ToLower(f[:1]) + f[1:]
}

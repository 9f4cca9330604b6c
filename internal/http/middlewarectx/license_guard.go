package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/admin7club/financial-manager/internal/http/response"
	"github.com/admin7club/financial-manager/internal/lib/entitlement"
	"github.com/admin7club/financial-manager/internal/lib/sl"
	"github.com/admin7club/financial-manager/internal/models"
)

// LicenseServiceInterface определяет интерфейс для проверки лицензии пользователя.
type LicenseServiceInterface interface {
	Check(ctx context.Context, userUID string) (*models.LicenseInfo, error)
}

// LicenseGuardMiddleware создает middleware, закрывающее доступ к защищённым
// операциям при истекшей лицензии. Ошибка проверки трактуется как отказ:
// доступ без подтвержденной лицензии не выдается.
func LicenseGuardMiddleware(log *slog.Logger, licService LicenseServiceInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userUID, ok := r.Context().Value(UserUID).(string)
			if !ok || userUID == "" {
				log.Error("user identification missing")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			info, err := licService.Check(r.Context(), userUID)
			if err != nil {
				log.Error("failed to check license", sl.Err(err))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("license check failed, access denied"))
				return
			}

			if info.Status == entitlement.StatusExpired {
				log.Error("license expired, access denied",
					slog.String("user_uid", userUID))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("license expired, access denied"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

package controller

import (
	"log/slog"

	"pgfinder_backend/internal/middleware"
	"pgfinder_backend/pkg/database"
	"pgfinder_backend/pkg/utils/request"
	"pgfinder_backend/pkg/utils/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var log = slog.Default()

// InitLogger sets the logger used for storage failures, which are never shown to clients.
func InitLogger(l *slog.Logger) {
	if l != nil {
		log = l
	}
}

// Action is one handler selectable through the action parameter. An empty
// Method accepts any request method.
type Action struct {
	Method  string
	Handler fiber.Handler
}

type Actions map[string]Action

func Get(h fiber.Handler, guards ...middleware.Guard) Action {
	return Action{Method: fiber.MethodGet, Handler: middleware.Guarded(h, guards...)}
}

func Post(h fiber.Handler, guards ...middleware.Guard) Action {
	return Action{Method: fiber.MethodPost, Handler: middleware.Guarded(h, guards...)}
}

func Any(h fiber.Handler, guards ...middleware.Guard) Action {
	return Action{Handler: middleware.Guarded(h, guards...)}
}

// Dispatch selects the handler named by the action parameter.
func Dispatch(actions Actions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, ok := actions[request.Action(c)]
		if !ok {
			return response.Fail(c, fiber.StatusBadRequest, "Invalid action")
		}
		if a.Method != "" && a.Method != c.Method() {
			return response.Fail(c, fiber.StatusMethodNotAllowed, "Invalid request method")
		}
		return a.Handler(c)
	}
}

// Mount registers the dispatcher for GET and POST on path.
func Mount(r fiber.Router, path string, actions Actions, handlers ...fiber.Handler) {
	h := append(append([]fiber.Handler{}, handlers...), Dispatch(actions))
	r.Get(path, h...)
	r.Post(path, h...)
}

func db(c *fiber.Ctx) *gorm.DB {
	return database.GetDB().WithContext(c.UserContext())
}

// serverError logs the cause under op and answers with a generic message.
func serverError(c *fiber.Ctx, op string, err error, message string) error {
	log.Error(message, "op", op, "error", err)
	return response.Fail(c, fiber.StatusInternalServerError, message)
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"dayline/internal/domain"
	"dayline/internal/engine"
	"dayline/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"constraint_violation"`
	Message string         `json:"message" example:"column \"Doing\" still contains 3 tasks"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

type bodyBytesKey struct{}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Dayline API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(b))
			ctx := context.WithValue(r.Context(), bodyBytesKey{}, b)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	hcfg := huma.DefaultConfig("Dayline API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerBoards(group, cfg.Engine)
	registerColumns(group, cfg.Engine)
	registerTasks(group, cfg.Engine)
	registerHabits(group, cfg.Engine)
	registerAgenda(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var verr engine.ValidationError
	if errors.As(err, &verr) {
		var details map[string]any
		if verr.Field != "" {
			details = map[string]any{"field": verr.Field}
		}
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), details)
	}
	var cerr engine.ConstraintError
	if errors.As(err, &cerr) {
		return newAPIError(http.StatusConflict, "constraint_violation", err.Error(), nil)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "constraint_violation"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func bodyBytes(ctx context.Context) []byte {
	b, _ := ctx.Value(bodyBytesKey{}).([]byte)
	return b
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			spec, _ = json.Marshal(api.OpenAPI())
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Dayline API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerBoards(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-board",
		Method:        http.MethodPost,
		Path:          "/boards",
		Summary:       "Create board",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateBoardRequest `json:"body"`
	}) (*struct {
		Body domain.Board `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		b, err := e.CreateBoard(ctx, input.Body.Name, input.Body.Space)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Board `json:"body"`
		}{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-boards",
		Method:      http.MethodGet,
		Path:        "/boards",
		Summary:     "List boards",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Space string `query:"space"`
	}) (*struct {
		Body []domain.Board `json:"body"`
	}, error) {
		items, err := e.ListBoards(ctx, input.Space)
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.Board{}
		}
		return &struct {
			Body []domain.Board `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-board",
		Method:      http.MethodGet,
		Path:        "/boards/{board_id}",
		Summary:     "Get board with ordered columns and tasks",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		BoardID string `path:"board_id"`
	}) (*struct {
		Body engine.BoardView `json:"body"`
	}, error) {
		view, err := e.Board(ctx, input.BoardID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.BoardView `json:"body"`
		}{Body: view}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-board",
		Method:      http.MethodDelete,
		Path:        "/boards/{board_id}",
		Summary:     "Delete board",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		BoardID string `path:"board_id"`
	}) (*struct{}, error) {
		if err := e.DeleteBoard(ctx, input.BoardID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-column-order",
		Method:      http.MethodPut,
		Path:        "/boards/{board_id}/column-order",
		Summary:     "Replace board column order",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		BoardID string       `path:"board_id"`
		Body    OrderRequest `json:"body"`
	}) (*struct {
		Body domain.Board `json:"body"`
	}, error) {
		b, err := e.SetColumnOrder(ctx, input.BoardID, input.Body.IDs)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Board `json:"body"`
		}{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reorder-column",
		Method:      http.MethodPost,
		Path:        "/boards/{board_id}/columns/{column_id}/position",
		Summary:     "Move a column to an index within its board",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		BoardID  string          `path:"board_id"`
		ColumnID string          `path:"column_id"`
		Body     PositionRequest `json:"body"`
	}) (*struct {
		Body domain.Board `json:"body"`
	}, error) {
		b, err := e.ReorderColumns(ctx, input.BoardID, input.ColumnID, input.Body.Index)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Board `json:"body"`
		}{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-column",
		Method:        http.MethodPost,
		Path:          "/boards/{board_id}/columns",
		Summary:       "Create column",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		BoardID string              `path:"board_id"`
		Body    CreateColumnRequest `json:"body"`
	}) (*struct {
		Body domain.Column `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		c, err := e.CreateColumn(ctx, input.BoardID, input.Body.Name, input.Body.WIPLimit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Column `json:"body"`
		}{Body: c}, nil
	})
}

func registerColumns(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-column",
		Method:      http.MethodGet,
		Path:        "/columns/{column_id}",
		Summary:     "Get column with ordered tasks",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ColumnID string `path:"column_id"`
	}) (*struct {
		Body engine.ColumnView `json:"body"`
	}, error) {
		cv, err := e.Column(ctx, input.ColumnID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.ColumnView `json:"body"`
		}{Body: cv}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-column",
		Method:      http.MethodPatch,
		Path:        "/columns/{column_id}",
		Summary:     "Update column",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ColumnID string              `path:"column_id"`
		Body     UpdateColumnRequest `json:"body"`
	}) (*struct {
		Body domain.Column `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		c, err := e.UpdateColumn(ctx, input.ColumnID, input.Body.Name, input.Body.WIPLimit, input.Body.ClearWIPLimit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Column `json:"body"`
		}{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-column",
		Method:      http.MethodDelete,
		Path:        "/columns/{column_id}",
		Summary:     "Delete empty column",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ColumnID string `path:"column_id"`
	}) (*struct{}, error) {
		if err := e.DeleteColumn(ctx, input.ColumnID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-task-order",
		Method:      http.MethodPut,
		Path:        "/columns/{column_id}/task-order",
		Summary:     "Replace column task order",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ColumnID string       `path:"column_id"`
		Body     OrderRequest `json:"body"`
	}) (*struct {
		Body engine.ColumnView `json:"body"`
	}, error) {
		cv, err := e.SetTaskOrder(ctx, input.ColumnID, input.Body.IDs)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.ColumnView `json:"body"`
		}{Body: cv}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reorder-task",
		Method:      http.MethodPost,
		Path:        "/columns/{column_id}/tasks/{task_id}/position",
		Summary:     "Move a task to an index within its column",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ColumnID string          `path:"column_id"`
		TaskID   string          `path:"task_id"`
		Body     PositionRequest `json:"body"`
	}) (*struct {
		Body engine.ColumnView `json:"body"`
	}, error) {
		cv, err := e.ReorderTask(ctx, input.ColumnID, input.TaskID, input.Body.Index)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.ColumnView `json:"body"`
		}{Body: cv}, nil
	})
}

func registerTasks(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create task",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body CreateTaskRequest `json:"body"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		t, err := e.CreateTask(ctx, engine.TaskCreateOptions{
			ColumnID:         input.Body.ColumnID,
			Title:            input.Body.Title,
			Notes:            input.Body.Notes,
			DueDate:          input.Body.DueDate,
			Priority:         input.Body.Priority,
			Labels:           input.Body.Labels,
			Subtasks:         input.Body.Subtasks,
			RecurringPattern: input.Body.RecurringPattern,
			RecurringEndDate: input.Body.RecurringEndDate,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{task_id}",
		Summary:     "Get task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		t, err := e.Task(ctx, input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPatch,
		Path:        "/tasks/{task_id}",
		Summary:     "Update task",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string            `path:"task_id"`
		Body   UpdateTaskRequest `json:"body"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		raw := bodyBytes(ctx)
		if len(raw) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		var fields map[string]json.RawMessage
		_ = json.Unmarshal(raw, &fields)
		_, labelsSet := fields["labels"]
		_, subtasksSet := fields["subtasks"]
		t, err := e.UpdateTask(ctx, engine.TaskUpdateOptions{
			ID:               input.TaskID,
			Title:            input.Body.Title,
			Notes:            input.Body.Notes,
			Priority:         input.Body.Priority,
			DueDate:          input.Body.DueDate,
			ClearDueDate:     input.Body.ClearDueDate,
			Done:             input.Body.Done,
			Labels:           input.Body.Labels,
			LabelsSet:        labelsSet,
			Subtasks:         input.Body.Subtasks,
			SubtasksSet:      subtasksSet,
			RecurringPattern: input.Body.RecurringPattern,
			RecurringEndDate: input.Body.RecurringEndDate,
			ClearRecurrence:  input.Body.ClearRecurrence,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/tasks/{task_id}",
		Summary:     "Delete task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct{}, error) {
		if err := e.DeleteTask(ctx, input.TaskID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "move-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{task_id}/move",
		Summary:     "Move task to a column",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string          `path:"task_id"`
		Body   MoveTaskRequest `json:"body"`
	}) (*struct {
		Body engine.MoveResult `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		index := -1
		if input.Body.Index != nil {
			index = *input.Body.Index
		}
		res, err := e.MoveTask(ctx, input.TaskID, input.Body.ColumnID, index)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.MoveResult `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{task_id}/complete",
		Summary:     "Complete task, advancing its recurrence if any",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct {
		Body engine.CompleteResult `json:"body"`
	}, error) {
		res, err := e.CompleteTask(ctx, input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.CompleteResult `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "carry-over-tasks",
		Method:      http.MethodPost,
		Path:        "/tasks/carry-over",
		Summary:     "Reschedule a batch of tasks to a target",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CarryOverRequest `json:"body"`
	}) (*struct {
		Body engine.CarryOverResult `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		res, err := e.CarryOver(ctx, input.Body.TaskIDs, input.Body.Target, input.Body.Date)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.CarryOverResult `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "sweep-overdue",
		Method:      http.MethodPost,
		Path:        "/tasks/sweep-overdue",
		Summary:     "Materialize missed recurring occurrences",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]int `json:"body"`
	}, error) {
		n, err := e.SweepOverdue(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]int `json:"body"`
		}{Body: map[string]int{"created": n}}, nil
	})
}

func registerHabits(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-habit",
		Method:        http.MethodPost,
		Path:          "/habits",
		Summary:       "Create habit",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateHabitRequest `json:"body"`
	}) (*struct {
		Body domain.Habit `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		h, err := e.CreateHabit(ctx, engine.HabitCreateOptions{
			Name:         input.Body.Name,
			Space:        input.Body.Space,
			Frequency:    input.Body.Frequency,
			TargetDays:   input.Body.TargetDays,
			ReminderTime: input.Body.ReminderTime,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Habit `json:"body"`
		}{Body: h}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-habits",
		Method:      http.MethodGet,
		Path:        "/habits",
		Summary:     "List habits",
	}, func(ctx context.Context, input *struct {
		Space string `query:"space"`
	}) (*struct {
		Body []domain.Habit `json:"body"`
	}, error) {
		items, err := e.ListHabits(ctx, input.Space)
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.Habit{}
		}
		return &struct {
			Body []domain.Habit `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "check-habit",
		Method:      http.MethodPost,
		Path:        "/habits/{habit_id}/check",
		Summary:     "Check habit for today",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		HabitID string `path:"habit_id"`
	}) (*struct {
		Body domain.Habit `json:"body"`
	}, error) {
		h, err := e.CheckHabit(ctx, input.HabitID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Habit `json:"body"`
		}{Body: h}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "uncheck-habit",
		Method:      http.MethodPost,
		Path:        "/habits/{habit_id}/uncheck",
		Summary:     "Undo today's habit check",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		HabitID string `path:"habit_id"`
	}) (*struct {
		Body domain.Habit `json:"body"`
	}, error) {
		h, err := e.UncheckHabit(ctx, input.HabitID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Habit `json:"body"`
		}{Body: h}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-habit",
		Method:      http.MethodDelete,
		Path:        "/habits/{habit_id}",
		Summary:     "Delete habit",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		HabitID string `path:"habit_id"`
	}) (*struct{}, error) {
		if err := e.DeleteHabit(ctx, input.HabitID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerAgenda(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "agenda-day",
		Method:      http.MethodGet,
		Path:        "/agenda/day",
		Summary:     "Day agenda with overdue and time-of-day buckets",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Space string `query:"space"`
		Date  string `query:"date" doc:"YYYY-MM-DD; defaults to today"`
	}) (*struct {
		Body engine.AgendaDayView `json:"body"`
	}, error) {
		view, err := e.AgendaDay(ctx, input.Space, input.Date, nil)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.AgendaDayView `json:"body"`
		}{Body: view}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "agenda-week",
		Method:      http.MethodGet,
		Path:        "/agenda/week",
		Summary:     "Week agenda starting at the configured week start",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Space string `query:"space"`
		Date  string `query:"date" doc:"YYYY-MM-DD anywhere in the target week; defaults to today"`
	}) (*struct {
		Body engine.AgendaWeekView `json:"body"`
	}, error) {
		view, err := e.AgendaWeek(ctx, input.Space, input.Date, nil)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.AgendaWeekView `json:"body"`
		}{Body: view}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Recent mutation log",
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit"`
	}) (*struct {
		Body []domain.Event `json:"body"`
	}, error) {
		items, err := e.RecentEvents(ctx, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.Event{}
		}
		return &struct {
			Body []domain.Event `json:"body"`
		}{Body: items}, nil
	})
}

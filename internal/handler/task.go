package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/taskquest/internal/auth"
	"github.com/sakif/taskquest/internal/service"
)

// TaskHandler adds and completes tasks. Both actions end with a redirect to
// /index whatever happened to a task the player cannot see.
type TaskHandler struct {
	tasks  TaskService
	logger *slog.Logger
}

func NewTaskHandler(tasks TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger.With(slog.String("component", "tasks"))}
}

// HandleAdd creates a task. An empty date means today.
//
// HTTP: POST /add (fields descricao, data) (RequireAuth)
func (h *TaskHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	in := service.AddTaskInput{
		Description: r.PostFormValue("descricao"),
		Date:        r.PostFormValue("data"),
	}
	if _, err := h.tasks.Add(r.Context(), userID, in); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	redirect(w, r, DashboardPath)
}

// HandleComplete marks a task done and pays 10 XP the first time.
//
// HTTP: GET /concluir/{taskID} (RequireAuth)
//
// Unknown tasks and tasks of other players are ignored silently; completing
// an already completed task changes nothing.
func (h *TaskHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	taskID := chi.URLParam(r, "taskID")

	res, err := h.tasks.Complete(r.Context(), userID, taskID)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}

	if msg := completionMessage(res); msg != "" {
		setFlash(w, msg)
	}
	redirect(w, r, DashboardPath)
}

func completionMessage(res *service.CompletionResult) string {
	if res.AlreadyCompleted {
		return ""
	}
	parts := []string{fmt.Sprintf("+%d XP", res.Progress.XPGained)}
	if res.Progress.LeveledUp() {
		parts = append(parts, fmt.Sprintf("Você chegou ao nível %d!", res.User.Level))
	}
	for _, a := range res.Unlocked {
		parts = append(parts, "Conquista desbloqueada: "+a.Name)
	}
	return strings.Join(parts, " ")
}

package interest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/norbye/interesse/pkg/eventbus"
	"github.com/norbye/interesse/pkg/events"
	"github.com/norbye/interesse/pkg/hubdb"
	"github.com/norbye/interesse/pkg/hubspot"
	"github.com/norbye/interesse/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const publishTimeout = 30 * time.Second

// Result is the outcome of one workflow invocation. Row is set when the
// transition mutated the interest table. SoftFailures names the best-effort
// steps that failed and were suppressed; they are diagnosable through logs
// but invisible to the webhook caller.
type Result struct {
	Action        Action        `json:"action"`
	Row           *hubdb.Row    `json:"row,omitempty"`
	Task          *hubspot.Task `json:"task,omitempty"`
	DeletedTaskID string        `json:"deleted_task_id,omitempty"`
	SoftFailures  []string      `json:"-"`
}

// Config wires a Workflow. Bus and Tracer are optional.
type Config struct {
	Records *hubdb.Store
	CRM     *hubspot.Client
	Owners  *hubspot.OwnerResolver
	Bus     eventbus.EventPublisher
	Tracer  trace.Tracer
	Logger  *slog.Logger
	Now     func() time.Time
}

// Workflow drives the interest-toggle transitions. Each invocation is a
// single atomic decision computed from current remote state; nothing is
// cached between invocations. The workflow is deliberately not transactional
// across its remote calls: the row upsert is the source-of-truth signal and
// the only hard path, everything after it runs inside an isolated
// soft-failure boundary and is never rolled back or retried.
type Workflow struct {
	records    *hubdb.Store
	crm        *hubspot.Client
	owners     *hubspot.OwnerResolver
	bus        eventbus.EventPublisher
	tracer     trace.Tracer
	logger     *slog.Logger
	now        func() time.Time
	background sync.WaitGroup
}

// New creates a Workflow.
func New(config Config) *Workflow {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tracer := config.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("interesse")
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &Workflow{
		records: config.Records,
		crm:     config.CRM,
		owners:  config.Owners,
		bus:     config.Bus,
		tracer:  tracer,
		logger:  logger.With("module", "interest_workflow"),
		now:     now,
	}
}

// Execute runs one transition. Validation failures and row-path failures are
// the only errors it returns; task, association, publish and event failures
// are logged and suppressed.
func (w *Workflow) Execute(ctx context.Context, intent Intent) (*Result, error) {
	err := validate(intent)
	if err != nil {
		return nil, err
	}

	action, err := intent.Action()
	if err != nil {
		return nil, err
	}

	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "interest.workflow",
		attribute.String(otelhelper.DealIDKey, string(intent.DealID)),
		attribute.String(otelhelper.ActionKey, string(action)),
	)
	defer span.End()

	var result *Result

	switch action {
	case ActionRegister:
		result, err = w.register(ctx, intent)
	case ActionWithdraw:
		result, err = w.withdraw(ctx, intent)
	}

	if err != nil {
		otelhelper.SetError(span, err)
		w.emit(ctx, string(intent.DealID), events.WorkflowFailed{
			BaseEvent: w.baseEvent(events.WorkflowFailedEvent, intent),
			Error:     err.Error(),
		})

		return nil, err
	}

	w.emitOutcome(ctx, intent, result)

	return result, nil
}

// Wait blocks until detached background work (the table publish) has
// finished. Called on shutdown so an in-flight publish is not cut off.
func (w *Workflow) Wait() {
	w.background.Wait()
}

func validate(intent Intent) error {
	if intent.DealID == "" || intent.UserEmail == "" || intent.Flag == nil {
		return ErrMissingRequiredFields
	}

	return nil
}

func (w *Workflow) register(ctx context.Context, intent Intent) (*Result, error) {
	logger := w.logger.With("deal_id", string(intent.DealID), "user_email", intent.UserEmail)

	rows, err := w.records.FetchAllRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch interest rows: %w", err)
	}

	existing := w.records.FindByCompositeKey(rows, string(intent.DealID), intent.UserEmail)
	if existing != nil {
		logger.InfoContext(ctx, "Updating existing interest record", "row_id", existing.ID)
	} else {
		logger.InfoContext(ctx, "Creating new interest record")
	}

	values := w.records.Columns().RecordValues(
		string(intent.DealID),
		intent.DealName,
		intent.UserEmail,
		intent.UserName,
		intent.FlagValue(),
		w.now(),
	)

	row, err := w.records.Upsert(ctx, values, existing)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert interest record: %w", err)
	}

	result := &Result{Action: ActionRegister, Row: row}

	w.publishInBackground(ctx)

	if hint := ParseOwnerHint(intent.DealOwnerID); hint != "" {
		task, err := w.createOwnerTask(ctx, intent, hint)
		if err != nil {
			logger.ErrorContext(ctx, "Owner task creation failed", "error", err)
			result.SoftFailures = append(result.SoftFailures, "owner_task")
		} else {
			result.Task = task
		}
	}

	err = w.associateContact(ctx, intent)
	if err != nil {
		logger.ErrorContext(ctx, "Deal-contact association failed", "error", err)
		result.SoftFailures = append(result.SoftFailures, "contact_association")
	}

	return result, nil
}

func (w *Workflow) withdraw(ctx context.Context, intent Intent) (*Result, error) {
	logger := w.logger.With("deal_id", string(intent.DealID), "user_email", intent.UserEmail)

	result := &Result{Action: ActionWithdraw}

	// The row is intentionally left untouched on withdrawal; only the
	// association and the follow-up task are removed.
	err := w.archiveContactAssociation(ctx, intent)
	if err != nil {
		logger.ErrorContext(ctx, "Deal-contact association archive failed", "error", err)
		result.SoftFailures = append(result.SoftFailures, "contact_association")
	}

	deletedTaskID, err := w.deleteOwnerTask(ctx, intent)
	if err != nil {
		logger.ErrorContext(ctx, "Owner task deletion failed", "error", err)
		result.SoftFailures = append(result.SoftFailures, "owner_task")
	} else {
		result.DeletedTaskID = deletedTaskID
	}

	return result, nil
}

// publishInBackground pushes the table draft live without blocking the
// response. The completion callback is logging only; a failed publish leaves
// the draft unpublished with no automatic retry.
func (w *Workflow) publishInBackground(ctx context.Context) {
	detached := context.WithoutCancel(ctx)

	w.background.Add(1)

	go func() {
		defer w.background.Done()

		ctx, cancel := context.WithTimeout(detached, publishTimeout)
		defer cancel()

		w.logger.InfoContext(ctx, "Starting background publish of interest table")

		err := w.records.Publish(ctx)
		if err != nil {
			w.logger.ErrorContext(ctx, "Background table publish failed", "error", err)

			return
		}

		w.logger.InfoContext(ctx, "Background table publish completed")
	}()
}

func (w *Workflow) createOwnerTask(ctx context.Context, intent Intent, ownerHint string) (*hubspot.Task, error) {
	ownerID, err := w.owners.Resolve(ctx, ownerHint, intent.UserEmail)
	if err != nil {
		return nil, err
	}

	subject := "New interest in deal: " + intent.DealName
	body := fmt.Sprintf("%s (%s) has shown interest in the deal %q. Please follow up.",
		intent.UserName, intent.UserEmail, intent.DealName)

	task, err := w.crm.CreateTask(ctx, ownerID, subject, body, map[string]string{
		"hs_task_priority": hubspot.TaskPriorityHigh,
		"hs_task_status":   hubspot.TaskStatusNotStarted,
	})
	if err != nil {
		return nil, err
	}

	err = w.crm.AssociateTaskWithDeal(ctx, task.ID, string(intent.DealID))
	if err != nil {
		return nil, err
	}

	w.logger.InfoContext(ctx, "Created follow-up task for deal owner",
		"task_id", task.ID, "owner_id", ownerID)

	return task, nil
}

func (w *Workflow) deleteOwnerTask(ctx context.Context, intent Intent) (string, error) {
	ownerID, err := w.owners.Resolve(ctx, ParseOwnerHint(intent.DealOwnerID), intent.UserEmail)
	if err != nil {
		if errors.Is(err, hubspot.ErrOwnerNotResolved) {
			w.logger.InfoContext(ctx, "No owner resolved, skipping task deletion")

			return "", nil
		}

		return "", err
	}

	tasks, err := w.crm.SearchTasksByOwnerAndDeal(ctx, ownerID, string(intent.DealID))
	if err != nil {
		return "", err
	}

	// Zero matches means there is nothing to remove; withdrawal still
	// succeeds.
	if len(tasks) == 0 {
		w.logger.InfoContext(ctx, "No follow-up task found for withdrawal", "owner_id", ownerID)

		return "", nil
	}

	err = w.crm.DeleteTask(ctx, tasks[0].ID)
	if err != nil {
		return "", err
	}

	w.logger.InfoContext(ctx, "Deleted follow-up task", "task_id", tasks[0].ID)

	return tasks[0].ID, nil
}

func (w *Workflow) associateContact(ctx context.Context, intent Intent) error {
	contacts, err := w.crm.SearchContactsByEmail(ctx, intent.UserEmail)
	if err != nil {
		return err
	}

	if len(contacts) == 0 {
		w.logger.InfoContext(ctx, "No contact matches user email, skipping association")

		return nil
	}

	return w.crm.CreateAssociation(ctx,
		hubspot.ObjectTypeDeals, string(intent.DealID),
		hubspot.ObjectTypeContacts, contacts[0].ID,
		hubspot.AssociationTypeDefault,
	)
}

func (w *Workflow) archiveContactAssociation(ctx context.Context, intent Intent) error {
	contacts, err := w.crm.SearchContactsByEmail(ctx, intent.UserEmail)
	if err != nil {
		return err
	}

	if len(contacts) == 0 {
		w.logger.InfoContext(ctx, "No contact matches user email, skipping association archive")

		return nil
	}

	return w.crm.ArchiveAssociations(ctx,
		hubspot.ObjectTypeDeals, hubspot.ObjectTypeContacts,
		[]hubspot.ArchiveInput{{
			FromID: string(intent.DealID),
			ToIDs:  []string{contacts[0].ID},
		}},
	)
}

func (w *Workflow) emitOutcome(ctx context.Context, intent Intent, result *Result) {
	switch result.Action {
	case ActionRegister:
		event := events.InterestRegistered{
			BaseEvent: w.baseEvent(events.InterestRegisteredEvent, intent),
		}
		if result.Row != nil {
			event.RowID = result.Row.ID
		}

		if result.Task != nil {
			event.TaskID = result.Task.ID
		}

		w.emit(ctx, string(intent.DealID), event)
	case ActionWithdraw:
		w.emit(ctx, string(intent.DealID), events.InterestWithdrawn{
			BaseEvent:     w.baseEvent(events.InterestWithdrawnEvent, intent),
			DeletedTaskID: result.DeletedTaskID,
		})
	}
}

func (w *Workflow) emit(ctx context.Context, key string, event eventbus.Event) {
	if w.bus == nil {
		return
	}

	err := w.bus.Publish(ctx, key, event)
	if err != nil {
		w.logger.WarnContext(ctx, "Failed to publish lifecycle event",
			"event_type", string(event.GetType()), "error", err)
	}
}

func (w *Workflow) baseEvent(eventType events.EventType, intent Intent) events.BaseEvent {
	return events.BaseEvent{
		ID:        newEventID(),
		Type:      eventType,
		Timestamp: w.now().UTC(),
		DealID:    string(intent.DealID),
		UserEmail: intent.UserEmail,
	}
}

func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

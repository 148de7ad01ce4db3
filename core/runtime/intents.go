package runtime

import (
	"context"
	"fmt"

	"github.com/artpar/warsztat/core/confirm"
	"github.com/artpar/warsztat/core/events"
	"github.com/artpar/warsztat/core/router"
)

// Intent action names.
const (
	ActionDeleteRecord = "delete_record"
	ActionDeleteModule = "delete_module"
	ActionImport       = "import"
	ActionReset        = "reset"
)

// Confirm asks c and runs in only when the answer is yes. A second
// request while one is outstanding fails with confirm.ErrPending.
func (rt *Runtime) Confirm(ctx context.Context, c confirm.Confirmer, in confirm.Intent) error {
	return rt.gate.Ask(ctx, c, in)
}

// Submit registers in as the outstanding confirmation request.
func (rt *Runtime) Submit(in confirm.Intent) (confirm.Pending, error) {
	return rt.gate.Submit(in)
}

// Pending returns the outstanding confirmation request.
func (rt *Runtime) Pending() (confirm.Pending, bool) {
	return rt.gate.Current()
}

// Resolve settles the outstanding confirmation request.
func (rt *Runtime) Resolve(ctx context.Context, id string, confirmed bool) (bool, error) {
	return rt.gate.Resolve(ctx, id, confirmed)
}

// DeleteRecordIntent prepares the deletion of one record. An unknown id
// is a no-op once confirmed.
func (rt *Runtime) DeleteRecordIntent(partition, id string) (confirm.Intent, error) {
	if _, err := rt.records.Schema(partition); err != nil {
		return confirm.Intent{}, err
	}

	return confirm.Intent{
		Action: ActionDeleteRecord,
		Prompt: confirm.Prompt{
			Title:       "Usunąć rekord?",
			Body:        "Tej operacji nie da się cofnąć (w tej sesji).",
			ConfirmText: "Usuń",
			Danger:      true,
		},
		Run: func(ctx context.Context) error {
			removed, err := rt.records.Delete(ctx, partition, id)
			rt.observer.Mutation(OpDelete, partition, err)
			if err != nil {
				return err
			}
			if removed {
				rt.logger.Debug().Str("partition", partition).Str("id", id).Msg("record deleted")
				rt.events.Publish(ctx, events.Event{Name: events.RecordDeleted, Partition: partition, ID: id})
			}
			return nil
		},
	}, nil
}

// DeleteModuleIntent prepares the deletion of a module and its records.
// The router is refreshed afterwards so a page showing the module turns
// into "module not found".
func (rt *Runtime) DeleteModuleIntent(slug string) confirm.Intent {
	name := slug
	if m, ok := rt.registry.Get(slug); ok && m.Name != "" {
		name = m.Name
	}

	return confirm.Intent{
		Action: ActionDeleteModule,
		Prompt: confirm.Prompt{
			Title:       "Usunąć moduł?",
			Body:        fmt.Sprintf("Usuniesz moduł %s i jego dane (w tej sesji).", name),
			ConfirmText: "Usuń moduł",
			Danger:      true,
		},
		Run: func(ctx context.Context) error {
			removed, err := rt.registry.Delete(ctx, slug)
			rt.observer.Mutation(OpModuleDelete, slug, err)
			if err != nil {
				return err
			}
			if removed {
				rt.logger.Debug().Str("slug", slug).Msg("module deleted")
				rt.events.Publish(ctx, events.Event{Name: events.ModuleDeleted, Partition: slug})
				rt.router.Refresh()
			}
			return nil
		},
	}
}

// ImportIntent parses data up front, so a malformed document fails with
// state.ErrMalformedInput before anything is asked, and prepares the
// wholesale replacement of the state.
func (rt *Runtime) ImportIntent(data []byte) (confirm.Intent, error) {
	st, err := rt.state.Parse(data)
	if err != nil {
		return confirm.Intent{}, err
	}

	return confirm.Intent{
		Action: ActionImport,
		Prompt: confirm.Prompt{
			Title:       "Zaimportować dane?",
			Body:        "Nadpisze bieżącą sesję.",
			ConfirmText: "Importuj",
		},
		Run: func(ctx context.Context) error {
			err := rt.state.Replace(ctx, st)
			rt.observer.Mutation(OpImport, "", err)
			if err != nil {
				return err
			}
			rt.logger.Info().Int("modules", len(st.CustomModules)).Msg("state imported")
			rt.events.Publish(ctx, events.Event{Name: events.StateImported})
			rt.router.Refresh()
			return nil
		},
	}, nil
}

// ResetIntent prepares discarding all data. Afterwards the router is on
// the dashboard. The theme is kept.
func (rt *Runtime) ResetIntent() confirm.Intent {
	return confirm.Intent{
		Action: ActionReset,
		Prompt: confirm.Prompt{
			Title:       "Wyczyścić sesję?",
			Body:        "Usunie wszystkie dane wprowadzone w tej sesji. Po zatwierdzeniu wrócisz na Pulpit.",
			ConfirmText: "Wyczyść",
			Danger:      true,
		},
		Run: func(ctx context.Context) error {
			err := rt.state.Reset(ctx)
			rt.observer.Mutation(OpReset, "", err)
			if err != nil {
				return err
			}
			rt.logger.Info().Msg("state reset")
			rt.events.Publish(ctx, events.Event{Name: events.StateReset})
			rt.router.Navigate(router.Href(router.KindDashboard))
			return nil
		},
	}
}

package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/meucv/internal/autosave"
	"github.com/jonathan/meucv/internal/clock"
	"github.com/jonathan/meucv/internal/completion"
	"github.com/jonathan/meucv/internal/i18n"
	"github.com/jonathan/meucv/internal/notify"
	"github.com/jonathan/meucv/internal/preferences"
	"github.com/jonathan/meucv/internal/rendering"
	"github.com/jonathan/meucv/internal/resume"
	"github.com/jonathan/meucv/internal/storage"
	"github.com/jonathan/meucv/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)

type fixture struct {
	session *Session
	mem     *storage.Memory
	clock   *clock.Manual
	toasts  *notify.Recorder
}

func newFixture(t *testing.T, seed map[string]string) *fixture {
	t.Helper()
	ctx := context.Background()
	mem := storage.NewMemory()
	for k, v := range seed {
		require.NoError(t, mem.Set(ctx, k, v))
	}
	clk := clock.NewManual(start)
	rec := notify.NewRecorder(0)
	n := 0
	s, err := Open(ctx, Config{
		Backend:  mem,
		Clock:    clk,
		Sink:     rec,
		MaxHints: completion.DefaultMaxHints,
		IDGenerator: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return &fixture{session: s, mem: mem, clock: clk, toasts: rec}
}

func (f *fixture) stored(t *testing.T) *types.CVData {
	t.Helper()
	raw, ok, err := f.mem.Get(context.Background(), storage.KeyCurrentCV)
	require.NoError(t, err)
	require.True(t, ok, "current document was not written")
	doc, err := resume.Decode([]byte(raw))
	require.NoError(t, err)
	return doc
}

func TestOpen_RequiresBackend(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	assert.Error(t, err)
}

func TestOpen_RestoresDocumentAndLocale(t *testing.T) {
	f := newFixture(t, map[string]string{
		storage.KeyCurrentCV: `{"personalData":{"fullName":"Ana Costa"}}`,
		storage.KeyLanguage:  "en",
	})

	assert.Equal(t, "Ana Costa", f.session.Document().PersonalData.FullName)
	assert.Equal(t, i18n.EN, f.session.Locale())
	assert.Equal(t, autosave.StatusIdle, f.session.AutosaveState().Status)
}

func TestOpen_DefaultLocale(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()

	s, err := Open(ctx, Config{Backend: mem, Clock: clock.NewManual(start), Sink: notify.Discard{}, Locale: i18n.EN})
	require.NoError(t, err)
	assert.Equal(t, i18n.EN, s.Locale())
	require.NoError(t, s.Close(ctx))

	require.NoError(t, mem.Set(ctx, storage.KeyLanguage, "pt"))
	s, err = Open(ctx, Config{Backend: mem, Clock: clock.NewManual(start), Sink: notify.Discard{}, Locale: i18n.EN})
	require.NoError(t, err)
	assert.Equal(t, i18n.PT, s.Locale(), "a stored choice wins over the configured default")
	require.NoError(t, s.Close(ctx))
}

func TestOpen_CustomKey(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()

	s, err := Open(ctx, Config{Backend: mem, Key: "draft_cv", Clock: clock.NewManual(start), Sink: notify.Discard{}})
	require.NoError(t, err)
	assert.Equal(t, "draft_cv", s.DocumentKey())

	_, err = s.Update(resume.PersonalData, json.RawMessage(`{"fullName":"Rui Lopes"}`))
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx))
	require.NoError(t, s.Close(ctx))

	raw, ok, err := mem.Get(ctx, "draft_cv")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, "Rui Lopes")

	assert.Equal(t, storage.KeyCurrentCV, newFixture(t, nil).session.DocumentKey())
}

func TestUpdate_AutosavesAfterDelay(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.session.Update(resume.PersonalData, json.RawMessage(`{"fullName":"Maria Silva"}`))
	require.NoError(t, err)
	assert.Equal(t, autosave.StatusPending, f.session.AutosaveState().Status)

	f.clock.Advance(500 * time.Millisecond)
	_, ok, err := f.mem.Get(context.Background(), storage.KeyCurrentCV)
	require.NoError(t, err)
	assert.False(t, ok)

	f.clock.Advance(500 * time.Millisecond)
	assert.Equal(t, "Maria Silva", f.stored(t).PersonalData.FullName)

	state := f.session.AutosaveState()
	assert.Equal(t, autosave.StatusIdle, state.Status)
	require.NotNil(t, state.LastSavedAt)
	assert.Equal(t, start.Add(time.Second), *state.LastSavedAt)
}

func TestRejectedEdit_DoesNotScheduleSave(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.session.Update(resume.Section("hobbies"), json.RawMessage(`[]`))
	var sectionErr *resume.SectionError
	require.ErrorAs(t, err, &sectionErr)

	_, err = f.session.ReorderSections([]types.SectionKey{types.SectionSkills})
	var validationErr *resume.ValidationError
	require.ErrorAs(t, err, &validationErr)

	assert.Equal(t, autosave.StatusIdle, f.session.AutosaveState().Status)
	assert.Zero(t, f.clock.Pending())
}

func TestListItems_FlowThroughAutosave(t *testing.T) {
	f := newFixture(t, nil)

	_, id, err := f.session.AddListItem(resume.Skills, json.RawMessage(`{"name":"Go","level":"expert"}`))
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)

	_, err = f.session.UpdateListItem(resume.Skills, id, json.RawMessage(`{"level":"advanced"}`))
	require.NoError(t, err)

	_, _, err = f.session.AddListItem(resume.Skills, json.RawMessage(`{"name":"SQL","level":"intermediate"}`))
	require.NoError(t, err)
	_, err = f.session.RemoveListItem(resume.Skills, "id-2")
	require.NoError(t, err)

	f.clock.Advance(time.Second)
	stored := f.stored(t)
	require.Len(t, stored.Skills, 1)
	assert.Equal(t, types.Skill{ID: "id-1", Name: "Go", Level: types.SkillAdvanced}, stored.Skills[0])
}

func TestSave_ConcurrentEditsKeepLatest(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 50 {
			_, err := f.session.Update(resume.ProfessionalProfile, json.RawMessage(fmt.Sprintf(`{"summary":"edit %d"}`, i)))
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for range 50 {
			assert.NoError(t, f.session.Save(ctx))
		}
	}()
	wg.Wait()

	f.clock.Advance(time.Second)
	assert.Equal(t, "edit 49", f.stored(t).ProfessionalProfile.Summary)
}

func TestSave_WritesImmediatelyWithToast(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.session.Update(resume.ProfessionalProfile, json.RawMessage(`{"summary":"Backend"}`))
	require.NoError(t, err)
	require.NoError(t, f.session.Save(context.Background()))

	assert.Equal(t, "Backend", f.stored(t).ProfessionalProfile.Summary)
	assert.Zero(t, f.clock.Pending())

	toasts := f.toasts.Drain()
	require.Len(t, toasts, 1)
	assert.Equal(t, notify.Success, toasts[0].Kind)
	assert.Equal(t, "Currículo guardado com sucesso!", toasts[0].Message)
}

func TestScoreProgressPreview(t *testing.T) {
	f := newFixture(t, nil)

	report := f.session.Score(-1, "")
	assert.Equal(t, 0, report.Score)
	assert.Len(t, report.Missing, completion.DefaultMaxHints)

	_, err := f.session.Update(resume.PersonalData, json.RawMessage(`{"fullName":"Maria Silva","email":"m@x.com"}`))
	require.NoError(t, err)

	report = f.session.Score(0, i18n.EN)
	assert.Equal(t, 20, report.Score)
	assert.Len(t, report.Missing, 6)
	assert.Equal(t, "Add your phone number", report.Missing[0].Message)

	assert.Equal(t, 14, f.session.Progress("").Percentage)

	out, err := f.session.Preview(rendering.FormatText, "")
	require.NoError(t, err)
	assert.Contains(t, out, "MARIA SILVA")
}

func TestNewDocument(t *testing.T) {
	f := newFixture(t, map[string]string{
		storage.KeyCurrentCV: `{"personalData":{"fullName":"Ana"}}`,
		storage.KeyEditingID: "old",
	})

	doc, err := f.session.NewDocument(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.PersonalData.FullName)

	p, err := f.session.Preferences(context.Background())
	require.NoError(t, err)
	assert.Empty(t, p.EditingID)

	f.clock.Advance(time.Second)
	assert.Empty(t, f.stored(t).PersonalData.FullName)
}

func TestLibraryFlow(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.session.Update(resume.PersonalData, json.RawMessage(`{"fullName":"Maria Silva"}`))
	require.NoError(t, err)

	saved, err := f.session.SaveToLibrary(ctx, "Principal")
	require.NoError(t, err)
	assert.Equal(t, "Principal", saved.Name)

	p, err := f.session.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, p.EditingID)

	// Saving again overwrites the entry being edited.
	_, err = f.session.Update(resume.PersonalData, json.RawMessage(`{"fullName":"Maria S."}`))
	require.NoError(t, err)
	again, err := f.session.SaveToLibrary(ctx, "Principal v2")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID)

	list, err := f.session.SavedCVs(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 1)

	copied, err := f.session.DuplicateSaved(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Principal v2 (cópia)", copied.Name)

	_, err = f.session.NewDocument(ctx)
	require.NoError(t, err)
	doc, entry, err := f.session.OpenSaved(ctx, copied.ID)
	require.NoError(t, err)
	assert.Equal(t, copied.ID, entry.ID)
	assert.Equal(t, "Maria S.", doc.PersonalData.FullName)
	assert.Equal(t, "Maria S.", f.session.Document().PersonalData.FullName)

	require.NoError(t, f.session.DeleteSaved(ctx, copied.ID))
	p, err = f.session.Preferences(ctx)
	require.NoError(t, err)
	assert.Empty(t, p.EditingID)

	list, err = f.session.SavedCVs(ctx, "v2")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, saved.ID, list[0].ID)
}

func TestSaveToLibrary_StaleEditingID(t *testing.T) {
	f := newFixture(t, map[string]string{storage.KeyEditingID: "gone"})

	saved, err := f.session.SaveToLibrary(context.Background(), "")
	require.NoError(t, err)
	assert.NotEqual(t, "gone", saved.ID)
	assert.Equal(t, "Currículo sem título", saved.Name)
}

func TestOpenSaved_Unknown(t *testing.T) {
	f := newFixture(t, nil)

	_, _, err := f.session.OpenSaved(context.Background(), "nope")
	assert.Error(t, err)
	assert.Equal(t, autosave.StatusIdle, f.session.AutosaveState().Status)
}

func TestSetPreferences_ChangesLocale(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	p := preferences.Defaults()
	p.Language = i18n.EN
	require.NoError(t, f.session.SetPreferences(ctx, p))
	assert.Equal(t, i18n.EN, f.session.Locale())

	p.Theme = "sepia"
	var validationErr *preferences.ValidationError
	require.ErrorAs(t, f.session.SetPreferences(ctx, p), &validationErr)
	assert.Equal(t, i18n.EN, f.session.Locale())
}

func TestClose_FlushesPendingEdit(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.session.Update(resume.PersonalData, json.RawMessage(`{"fullName":"Rui"}`))
	require.NoError(t, err)
	require.NoError(t, f.session.Close(context.Background()))

	assert.Equal(t, "Rui", f.stored(t).PersonalData.FullName)
	assert.ErrorIs(t, f.session.Save(context.Background()), autosave.ErrClosed)
}

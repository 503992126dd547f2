package resume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jonathan/meucv/internal/storage"
	"github.com/jonathan/meucv/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestStore(t *testing.T) (*Store, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	return NewStore(mem, WithIDGenerator(sequentialIDs())), mem
}

type failingBackend struct {
	storage.Backend
	err error
}

func (f failingBackend) Get(context.Context, string) (string, bool, error) {
	return "", false, f.err
}

func (f failingBackend) Set(context.Context, string, string) error {
	return f.err
}

func TestLoad_AbsentKey(t *testing.T) {
	s, _ := newTestStore(t)

	doc := s.Load(context.Background(), "")
	assert.Equal(t, types.DefaultCVData(), doc)
	assert.Same(t, doc, s.Current())
}

func TestLoad_CorruptedValue(t *testing.T) {
	s, mem := newTestStore(t)
	require.NoError(t, mem.Set(context.Background(), storage.KeyCurrentCV, "{not json"))

	doc := s.Load(context.Background(), "")
	assert.Equal(t, types.DefaultCVData(), doc)
}

func TestLoad_BackendError(t *testing.T) {
	s := NewStore(failingBackend{err: errors.New("boom")})

	doc := s.Load(context.Background(), "")
	assert.Equal(t, types.DefaultCVData(), doc)
}

func TestLoad_PartialDocument(t *testing.T) {
	s, mem := newTestStore(t)
	raw := `{"personalData":{"fullName":"Ana"},"skills":[{"id":"","name":"Go","level":"expert"},{"id":"x","name":"SQL","level":"advanced"},{"id":"x","name":"Rust","level":"beginner"}],"sectionOrder":["skills"]}`
	require.NoError(t, mem.Set(context.Background(), storage.KeyCurrentCV, raw))

	doc := s.Load(context.Background(), "")
	assert.Equal(t, "Ana", doc.PersonalData.FullName)
	assert.Equal(t, types.DefaultCVData().Settings, doc.Settings)
	assert.NotNil(t, doc.Experiences)
	assert.Nil(t, doc.SectionOrder, "invalid order is dropped")

	ids := map[string]bool{}
	for _, sk := range doc.Skills {
		assert.NotEmpty(t, sk.ID)
		assert.False(t, ids[sk.ID], "duplicate id %s", sk.ID)
		ids[sk.ID] = true
	}
}

func TestLoad_InvalidSettingsReset(t *testing.T) {
	s, mem := newTestStore(t)
	raw := `{"settings":{"template":"fancy","accentColor":"purple","fontSize":"huge"}}`
	require.NoError(t, mem.Set(context.Background(), storage.KeyCurrentCV, raw))

	doc := s.Load(context.Background(), "")
	assert.Equal(t, types.DefaultCVData().Settings, doc.Settings)
}

func TestPersist_RoundTrip(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()

	doc, err := s.Update(PersonalData, json.RawMessage(`{"fullName":"Maria Silva","email":"maria@example.com"}`))
	require.NoError(t, err)
	doc, _, err = s.AddListItem(Skills, json.RawMessage(`{"name":"Go"}`))
	require.NoError(t, err)
	require.NoError(t, s.Persist(ctx, doc))

	reloaded := NewStore(mem).Load(ctx, "")
	assert.Equal(t, doc, reloaded)
}

func TestPersist_Failure(t *testing.T) {
	s := NewStore(failingBackend{err: errors.New("quota exceeded")})

	err := s.Persist(context.Background(), types.DefaultCVData())
	var pErr *PersistenceError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, storage.KeyCurrentCV, pErr.Key)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestUpdate_MergesObjectSections(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Update(PersonalData, json.RawMessage(`{"fullName":"Ana","email":"ana@example.com"}`))
	require.NoError(t, err)
	doc, err := s.Update(PersonalData, json.RawMessage(`{"phone":"+351 912 345 678"}`))
	require.NoError(t, err)

	assert.Equal(t, "Ana", doc.PersonalData.FullName)
	assert.Equal(t, "ana@example.com", doc.PersonalData.Email)
	assert.Equal(t, "+351 912 345 678", doc.PersonalData.Phone)
}

func TestUpdate_Settings(t *testing.T) {
	s, _ := newTestStore(t)

	doc, err := s.Update(Settings, json.RawMessage(`{"template":"classic"}`))
	require.NoError(t, err)
	assert.Equal(t, types.TemplateClassic, doc.Settings.Template)
	assert.Equal(t, types.DefaultAccentColor, doc.Settings.AccentColor)

	before := s.Current()
	doc, err = s.Update(Settings, json.RawMessage(`{"fontSize":"gigantic"}`))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Same(t, before, doc)
	assert.Equal(t, types.FontMedium, s.Current().Settings.FontSize)
}

func TestUpdate_Photo(t *testing.T) {
	s, _ := newTestStore(t)

	doc, err := s.Update(Photo, json.RawMessage(`"data:image/png;base64,AAAA"`))
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAAA", doc.Photo)

	doc, err = s.Update(Photo, json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Empty(t, doc.Photo)
}

func TestUpdate_ReplacesLists(t *testing.T) {
	s, _ := newTestStore(t)
	_, _, err := s.AddListItem(Skills, json.RawMessage(`{"name":"Go"}`))
	require.NoError(t, err)

	doc, err := s.Update(Skills, json.RawMessage(`[{"name":" SQL ","level":"advanced"},{"name":"Docker"}]`))
	require.NoError(t, err)
	require.Len(t, doc.Skills, 2)
	assert.Equal(t, "SQL", doc.Skills[0].Name)
	assert.Equal(t, types.SkillIntermediate, doc.Skills[1].Level)
	assert.NotEmpty(t, doc.Skills[0].ID)
	assert.NotEqual(t, doc.Skills[0].ID, doc.Skills[1].ID)

	doc, err = s.Update(Skills, json.RawMessage(`null`))
	require.NoError(t, err)
	assert.NotNil(t, doc.Skills)
	assert.Empty(t, doc.Skills)
}

func TestUpdate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		section Section
		raw     string
		target  any
	}{
		{"unknown section", Section("hobbies"), `[]`, new(*SectionError)},
		{"malformed object", PersonalData, `{"fullName":`, new(*ValidationError)},
		{"wrong list shape", Experiences, `{"company":"Acme"}`, new(*ValidationError)},
		{"blank skill name", Skills, `[{"name":"   "}]`, new(*ValidationError)},
		{"unknown language level", Languages, `[{"name":"Inglês","level":"godlike"}]`, new(*ValidationError)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			before := s.Current()

			doc, err := s.Update(tt.section, json.RawMessage(tt.raw))
			require.Error(t, err)
			assert.ErrorAs(t, err, tt.target)
			assert.Same(t, before, doc)
			assert.Same(t, before, s.Current())
		})
	}
}

func TestAddListItem_AssignsUniqueIDs(t *testing.T) {
	s, _ := newTestStore(t)

	_, id1, err := s.AddListItem(Experiences, json.RawMessage(`{"company":"Acme"}`))
	require.NoError(t, err)
	_, id2, err := s.AddListItem(Experiences, json.RawMessage(`{"id":"`+id1+`","company":"Globex"}`))
	require.NoError(t, err)
	doc, id3, err := s.AddListItem(Experiences, json.RawMessage(`{"id":"custom","company":"Initech"}`))
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	assert.Equal(t, "custom", id3)
	require.Len(t, doc.Experiences, 3)
	assert.Equal(t, "Initech", doc.Experiences[2].Company)
}

func TestAddListItem_SkillValidation(t *testing.T) {
	s, _ := newTestStore(t)

	doc, _, err := s.AddListItem(Skills, json.RawMessage(`{"name":"  Kubernetes  "}`))
	require.NoError(t, err)
	require.Len(t, doc.Skills, 1)
	assert.Equal(t, "Kubernetes", doc.Skills[0].Name)
	assert.Equal(t, types.SkillIntermediate, doc.Skills[0].Level)

	_, _, err = s.AddListItem(Skills, json.RawMessage(`{"name":""}`))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, s.Current().Skills, 1)
}

func TestUpdateListItem(t *testing.T) {
	s, _ := newTestStore(t)
	_, id, err := s.AddListItem(Experiences, json.RawMessage(`{"company":"Acme","position":"Dev","endDate":"2020-01"}`))
	require.NoError(t, err)

	doc, err := s.UpdateListItem(Experiences, id, json.RawMessage(`{"id":"hijack","current":true}`))
	require.NoError(t, err)
	require.Len(t, doc.Experiences, 1)
	e := doc.Experiences[0]
	assert.Equal(t, id, e.ID, "id cannot be changed")
	assert.Equal(t, "Acme", e.Company)
	assert.True(t, e.Current)
	assert.Equal(t, "", e.EffectiveEndDate())
}

func TestUpdateListItem_UnknownIDIsNoOp(t *testing.T) {
	s, _ := newTestStore(t)
	_, _, err := s.AddListItem(Education, json.RawMessage(`{"institution":"Universidade de Lisboa"}`))
	require.NoError(t, err)
	before := s.Current()

	doc, err := s.UpdateListItem(Education, "nope", json.RawMessage(`{"degree":"MSc"}`))
	require.NoError(t, err)
	assert.Same(t, before, doc)
}

func TestRemoveListItem_Idempotent(t *testing.T) {
	s, _ := newTestStore(t)
	_, id, err := s.AddListItem(Languages, json.RawMessage(`{"name":"Inglês","level":"fluent"}`))
	require.NoError(t, err)
	_, _, err = s.AddListItem(Languages, json.RawMessage(`{"name":"Francês"}`))
	require.NoError(t, err)

	once, err := s.RemoveListItem(Languages, id)
	require.NoError(t, err)
	twice, err := s.RemoveListItem(Languages, id)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	require.Len(t, twice.Languages, 1)
	assert.Equal(t, "Francês", twice.Languages[0].Name)
}

func TestListOps_UnknownSection(t *testing.T) {
	s, _ := newTestStore(t)

	_, _, err := s.AddListItem(PersonalData, json.RawMessage(`{}`))
	var sErr *SectionError
	assert.ErrorAs(t, err, &sErr)

	_, err = s.UpdateListItem(Settings, "x", json.RawMessage(`{}`))
	assert.ErrorAs(t, err, &sErr)

	_, err = s.RemoveListItem(Photo, "x")
	assert.ErrorAs(t, err, &sErr)
}

func TestSnapshotsAreImmutable(t *testing.T) {
	s, _ := newTestStore(t)
	first, _, err := s.AddListItem(Skills, json.RawMessage(`{"name":"Go"}`))
	require.NoError(t, err)

	second, err := s.UpdateListItem(Skills, first.Skills[0].ID, json.RawMessage(`{"name":"Golang"}`))
	require.NoError(t, err)
	third, err := s.RemoveListItem(Skills, first.Skills[0].ID)
	require.NoError(t, err)

	assert.Equal(t, "Go", first.Skills[0].Name)
	assert.Equal(t, "Golang", second.Skills[0].Name)
	assert.Empty(t, third.Skills)
	assert.Len(t, first.Skills, 1)
}

func TestReorderSections(t *testing.T) {
	s, _ := newTestStore(t)
	order := []types.SectionKey{
		types.SectionSkills, types.SectionPersonal, types.SectionProfile,
		types.SectionExperience, types.SectionEducation, types.SectionLanguages,
	}

	doc, err := s.ReorderSections(order)
	require.NoError(t, err)
	assert.Equal(t, order, doc.Order())

	order[0] = types.SectionLanguages
	assert.Equal(t, types.SectionSkills, s.Current().SectionOrder[0], "order is copied")

	_, err = s.ReorderSections([]types.SectionKey{types.SectionSkills, types.SectionSkills})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, types.SectionSkills, s.Current().Order()[0])
}

func TestReplaceAndReset(t *testing.T) {
	s, _ := newTestStore(t)
	in := types.DefaultCVData()
	in.PersonalData.FullName = "Rui"
	in.Skills = []types.Skill{{Name: "Go", Level: types.SkillExpert}}

	doc := s.Replace(in)
	assert.Equal(t, "Rui", doc.PersonalData.FullName)
	assert.NotEmpty(t, doc.Skills[0].ID)
	assert.Empty(t, in.Skills[0].ID, "input is not modified")

	assert.Equal(t, types.DefaultCVData(), s.Reset())
	assert.Equal(t, types.DefaultCVData(), s.Replace(nil))
}

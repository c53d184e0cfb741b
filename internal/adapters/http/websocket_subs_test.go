package http

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	natsadapter "github.com/samirrijal/schoolfinder/internal/adapters/nats"
	"github.com/samirrijal/schoolfinder/internal/core/domain"
)

type fakeSub struct {
	subject string
	active  map[string]bool
}

func (f *fakeSub) Unsubscribe() error {
	delete(f.active, f.subject)
	return nil
}

func newFakeSubscriptions() (*wsSubscriptions, map[string]bool) {
	active := map[string]bool{}
	w := newWSSubscriptions(func(subject string) (unsubscriber, error) {
		if subject == "schools.broken" {
			return nil, errors.New("nats down")
		}
		active[subject] = true
		return &fakeSub{subject: subject, active: active}, nil
	})
	return w, active
}

func activeSubjects(active map[string]bool) []string {
	out := make([]string, 0, len(active))
	for s := range active {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func TestWSSubscriptions_NarrowingReplacesWildcard(t *testing.T) {
	w, active := newFakeSubscriptions()

	added, err := w.add(natsadapter.SubjectWildcard)
	require.NoError(t, err)
	assert.True(t, added)

	created := natsadapter.Subject(domain.EventSchoolCreated)
	added, err = w.add(created)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{created}, activeSubjects(active))

	purged := natsadapter.Subject(domain.EventSchoolsPurged)
	_, err = w.add(purged)
	require.NoError(t, err)
	assert.Equal(t, []string{created, purged}, activeSubjects(active))
}

func TestWSSubscriptions_WideningReplacesSpecific(t *testing.T) {
	w, active := newFakeSubscriptions()

	_, err := w.add(natsadapter.Subject(domain.EventSchoolCreated))
	require.NoError(t, err)
	_, err = w.add(natsadapter.Subject(domain.EventSchoolsPurged))
	require.NoError(t, err)

	_, err = w.add(natsadapter.SubjectWildcard)
	require.NoError(t, err)
	assert.Equal(t, []string{natsadapter.SubjectWildcard}, activeSubjects(active))
}

func TestWSSubscriptions_DuplicateRemoveAndClose(t *testing.T) {
	w, active := newFakeSubscriptions()
	created := natsadapter.Subject(domain.EventSchoolCreated)

	_, err := w.add(created)
	require.NoError(t, err)
	added, err := w.add(created)
	require.NoError(t, err)
	assert.False(t, added)

	assert.True(t, w.remove(created))
	assert.False(t, w.remove(created))
	assert.Empty(t, active)

	_, err = w.add(natsadapter.SubjectWildcard)
	require.NoError(t, err)
	w.closeAll()
	assert.Empty(t, active)
}

func TestWSSubscriptions_FailedSubscribeKeepsExisting(t *testing.T) {
	w, active := newFakeSubscriptions()

	_, err := w.add(natsadapter.SubjectWildcard)
	require.NoError(t, err)

	_, err = w.add("schools.broken")
	require.Error(t, err)
	assert.Equal(t, []string{natsadapter.SubjectWildcard}, activeSubjects(active))
}

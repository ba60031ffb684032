package feed

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/dispatch/internal/events/bus"
	"github.com/zeusync/dispatch/pkg/vtable"
)

func TestFeedPublishesToDefaultAndFamilyTopics(t *testing.T) {
	b := bus.New()
	f := New(b, nil, "test")

	var defaultGot, familyGot []bus.Event
	_, err := b.Subscribe(bus.TypeDispatch, func(e bus.Event) error {
		defaultGot = append(defaultGot, e)
		return nil
	})
	require.NoError(t, err)
	_, err = b.SubscribeTopic("shapes", bus.TypeDispatch, func(e bus.Event) error {
		familyGot = append(familyGot, e)
		return nil
	})
	require.NoError(t, err)

	f.OnDispatch(vtable.DispatchEvent{Family: "shapes", Tag: 2, Operation: "op"})

	require.Len(t, defaultGot, 1)
	require.Len(t, familyGot, 1)
	rec, ok := defaultGot[0].Data().(DispatchRecord)
	require.True(t, ok)
	require.Equal(t, "op", rec.Operation)
	require.Equal(t, vtable.Tag(2), rec.Tag)
	require.Equal(t, "test", defaultGot[0].Source())
}

func TestFeedRecordsErrorString(t *testing.T) {
	b := bus.New()
	f := New(b, nil, "test")

	var got []bus.Event
	_, err := b.Subscribe(bus.TypeDispatch, func(e bus.Event) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)

	f.OnDispatch(vtable.DispatchEvent{Family: "shapes", Err: vtable.ErrUnregisteredSubtype})

	require.Len(t, got, 1)
	rec := got[0].Data().(DispatchRecord)
	require.Contains(t, rec.Error, "no operation registered")
}

func TestFeedRegistrationRecord(t *testing.T) {
	b := bus.New()
	f := New(b, nil, "test")

	var got []bus.Event
	_, err := b.Subscribe(bus.TypeRegistration, func(e bus.Event) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)

	f.OnRegister(vtable.RegistrationEvent{
		Family:    "shapes",
		Tag:       1,
		Operation: "op",
		Override:  true,
		Previous:  "old-op",
	})

	require.Len(t, got, 1)
	rec := got[0].Data().(RegistrationRecord)
	require.True(t, rec.Override)
	require.Equal(t, "old-op", rec.Previous)
}

package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionManager_OpenIsPerUserAndStable(t *testing.T) {
	manager := NewSessionManager(SessionDeps{
		Options: SessionOptions{WelcomeMessage: "welcome"},
	})

	first, firstBuffer := manager.Open(1)
	again, againBuffer := manager.Open(1)
	require.Same(t, first, again)
	require.Same(t, firstBuffer, againBuffer)

	other, _ := manager.Open(2)
	require.NotSame(t, first, other)
}

func TestSessionManager_ReleaseDropsTheSession(t *testing.T) {
	manager := NewSessionManager(SessionDeps{
		Options: SessionOptions{WelcomeMessage: "welcome"},
	})

	first, _ := manager.Open(1)
	manager.Release(1)

	fresh, _ := manager.Open(1)
	require.NotSame(t, first, fresh)

	// Releasing an unknown user is a no-op.
	manager.Release(99)
}

func TestNotificationBuffer_DrainEmpties(t *testing.T) {
	buffer := &NotificationBuffer{}
	buffer.Notify(Notification{Level: NotifyInfo, Title: "a"})
	buffer.Notify(Notification{Level: NotifyError, Title: "b"})

	drained := buffer.Drain()
	require.Len(t, drained, 2)
	require.Equal(t, "a", drained[0].Title)

	require.Empty(t, buffer.Drain())
}

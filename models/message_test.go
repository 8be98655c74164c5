package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSupportSLA(t *testing.T) {
	start := time.Date(2026, time.April, 2, 10, 0, 0, 0, time.UTC)
	customer := User{ID: 1, Role: RoleCustomer}
	admin := User{ID: 2, Role: RoleAdmin}
	target := 30 * time.Minute

	t.Run("no messages", func(t *testing.T) {
		sla := ComputeSupportSLA(nil, target, start)
		assert.Nil(t, sla.FirstCustomerMessage)
		assert.False(t, sla.Breached)
		assert.False(t, sla.AwaitingResponse)
		assert.Equal(t, int64(1800), sla.TargetSeconds)
	})

	t.Run("answered in time", func(t *testing.T) {
		msgs := []Message{
			{Sender: customer, CreatedAt: start},
			{Sender: customer, CreatedAt: start.Add(5 * time.Minute)},
			{Sender: admin, CreatedAt: start.Add(12 * time.Minute)},
		}
		sla := ComputeSupportSLA(msgs, target, start.Add(time.Hour))
		require.NotNil(t, sla.FirstResponseSeconds)
		assert.Equal(t, int64(720), *sla.FirstResponseSeconds)
		assert.False(t, sla.Breached)
		assert.False(t, sla.AwaitingResponse)
	})

	t.Run("answered late", func(t *testing.T) {
		msgs := []Message{
			{Sender: customer, CreatedAt: start},
			{Sender: admin, CreatedAt: start.Add(45 * time.Minute)},
		}
		sla := ComputeSupportSLA(msgs, target, start.Add(time.Hour))
		assert.True(t, sla.Breached)
	})

	t.Run("admin message before customer is ignored", func(t *testing.T) {
		msgs := []Message{
			{Sender: admin, CreatedAt: start},
			{Sender: customer, CreatedAt: start.Add(time.Minute)},
		}
		sla := ComputeSupportSLA(msgs, target, start.Add(10*time.Minute))
		require.NotNil(t, sla.FirstCustomerMessage)
		assert.Equal(t, start.Add(time.Minute), *sla.FirstCustomerMessage)
		assert.Nil(t, sla.FirstAdminResponse)
		assert.True(t, sla.AwaitingResponse)
		assert.False(t, sla.Breached)
	})

	t.Run("still waiting past target", func(t *testing.T) {
		msgs := []Message{{Sender: customer, CreatedAt: start}}
		sla := ComputeSupportSLA(msgs, target, start.Add(31*time.Minute))
		assert.True(t, sla.AwaitingResponse)
		assert.True(t, sla.Breached)
	})
}

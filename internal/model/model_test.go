package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleAdmin))
	assert.True(t, ValidRole(RoleWaiter))
	assert.False(t, ValidRole("OWNER"))
	assert.False(t, ValidRole("admin")) // roles are upper-case
	assert.False(t, ValidRole(""))
}

func TestValidPaymentMethod(t *testing.T) {
	for _, m := range []string{PayCash, PayCard, PayTransfer} {
		assert.True(t, ValidPaymentMethod(m), m)
	}
	assert.False(t, ValidPaymentMethod("cheque"))
	assert.False(t, ValidPaymentMethod(""))
}

func TestValidOrderStatus(t *testing.T) {
	for _, s := range []string{OrderPending, OrderInPreparation, OrderServed, OrderPaid, OrderCancelled} {
		assert.True(t, ValidOrderStatus(s), s)
	}
	assert.False(t, ValidOrderStatus("ready"))
}

func TestValidTableStatus(t *testing.T) {
	for _, s := range []string{TableAvailable, TableOccupied, TableReserved} {
		assert.True(t, ValidTableStatus(s), s)
	}
	assert.False(t, ValidTableStatus("free"))
}

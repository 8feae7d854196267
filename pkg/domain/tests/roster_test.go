package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopbot/pkg/domain/model"
	"shopbot/pkg/domain/service"
)

func TestAddEmployee(t *testing.T) {
	ctx := context.Background()
	f := setup(t, admin(1))
	caller := callerWithID(1, "")
	session := &model.Session{UserID: caller.ID}

	require.NoError(t, f.rosterSvc.StartAdd(ctx, caller, session))
	assert.Equal(t, model.AwaitEmployeeID, session.State)

	require.NoError(t, f.rosterSvc.HandleText(ctx, caller, session, "not an id"))
	assert.Equal(t, model.AwaitEmployeeID, session.State)
	assert.Equal(t, "Введите корректный ID или @username:", f.messenger.last(caller.Chat()).Text)

	require.NoError(t, f.rosterSvc.HandleText(ctx, caller, session, "@new_seller"))
	assert.Equal(t, model.AwaitEmployeeRole, session.State)
	menu := f.messenger.last(caller.Chat())
	require.Len(t, menu.Keyboard, 2)
	assert.Equal(t, service.ActionAdminEmployee, menu.Keyboard[0][0].Data)
	assert.Equal(t, service.ActionSellerEmployee, menu.Keyboard[1][0].Data)

	operator, err := f.rosterSvc.ChooseRole(ctx, caller, session, model.RoleSeller)
	require.NoError(t, err)
	assert.Equal(t, model.Idle, session.State)
	assert.Equal(t, []model.Permission{model.PermissionOrders}, operator.Permissions)

	require.Len(t, f.roster.operators, 2)
	assert.Equal(t, model.Identity{Value: "@new_seller"}, f.roster.operators[1].UserID)
	assert.Len(t, f.messenger.documents, 2)
	assert.Equal(t, "Добавлен сотрудник @new_seller с ролью seller!", f.messenger.last(caller.Chat()).Text)

	ok, err := f.permissions.HasPermission(callerWithID(55, "New_Seller"), model.PermissionOrders)
	require.NoError(t, err)
	assert.True(t, ok, "a handle record grants access to the matching username")
}

func TestAddAdminByNumericID(t *testing.T) {
	ctx := context.Background()
	f := setup(t, admin(1))
	caller := callerWithID(1, "")
	session := &model.Session{UserID: caller.ID}

	require.NoError(t, f.rosterSvc.StartAdd(ctx, caller, session))
	require.NoError(t, f.rosterSvc.HandleText(ctx, caller, session, " 12345 "))
	operator, err := f.rosterSvc.ChooseRole(ctx, caller, session, model.RoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, model.NumericIdentity(12345), operator.UserID)
	assert.Equal(t, []model.Permission{model.PermissionAll}, operator.Permissions)
}

func TestAddEmployeeDuplicate(t *testing.T) {
	ctx := context.Background()
	textual := model.Operator{UserID: model.Identity{Value: "123"}, Role: model.RoleSeller, Permissions: []model.Permission{model.PermissionOrders}}
	f := setup(t, admin(1), textual)
	caller := callerWithID(1, "")
	session := &model.Session{UserID: caller.ID}

	require.NoError(t, f.rosterSvc.StartAdd(ctx, caller, session))
	require.NoError(t, f.rosterSvc.HandleText(ctx, caller, session, "123"))
	_, err := f.rosterSvc.ChooseRole(ctx, caller, session, model.RoleAdmin)

	assert.ErrorIs(t, err, model.ErrOperatorExists)
	assert.Len(t, f.roster.operators, 2)
	assert.Equal(t, model.RoleSeller, f.roster.operators[1].Role)
	assert.Equal(t, model.Idle, session.State)
	assert.Empty(t, f.messenger.documents)
}

func TestChooseRoleWithoutPendingEmployee(t *testing.T) {
	f := setup(t, admin(1))
	session := &model.Session{UserID: 1}

	_, err := f.rosterSvc.ChooseRole(context.Background(), callerWithID(1, ""), session, model.RoleSeller)
	assert.ErrorIs(t, err, service.ErrNoPendingEmployee)
	assert.Len(t, f.roster.operators, 1)
}

func TestRosterWizardRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	f := setup(t, admin(1), seller(2))
	caller := callerWithID(2, "")
	session := &model.Session{UserID: caller.ID}

	assert.ErrorIs(t, f.rosterSvc.StartAdd(ctx, caller, session), model.ErrPermissionDenied)
	assert.ErrorIs(t, f.rosterSvc.ShowRemoveMenu(ctx, caller), model.ErrPermissionDenied)
	assert.ErrorIs(t, f.rosterSvc.Remove(ctx, caller, "1"), model.ErrPermissionDenied)

	session.State = model.AwaitEmployeeID
	assert.ErrorIs(t, f.rosterSvc.HandleText(ctx, caller, session, "@intruder"), model.ErrPermissionDenied)
	assert.Equal(t, model.Idle, session.State)
	assert.Len(t, f.roster.operators, 2)
}

func TestRemoveEmployee(t *testing.T) {
	ctx := context.Background()
	caller := callerWithID(1, "")

	t.Run("removes the matching record", func(t *testing.T) {
		f := setup(t, admin(1), seller(2))
		require.NoError(t, f.rosterSvc.ShowRemoveMenu(ctx, caller))
		menu := f.messenger.last(caller.Chat())
		require.Len(t, menu.Keyboard, 2)
		assert.Equal(t, service.PrefixDeleteEmployee+"2", menu.Keyboard[1][0].Data)

		require.NoError(t, f.rosterSvc.Remove(ctx, caller, "2"))
		assert.Equal(t, []model.Operator{admin(1)}, f.roster.operators)
		assert.Equal(t, "Сотрудник 2 удалён!", f.messenger.last(caller.Chat()).Text)
		assert.Len(t, f.messenger.documents, 2)
	})

	t.Run("handles compare case-insensitively", func(t *testing.T) {
		handle := model.Operator{UserID: model.Identity{Value: "@Clerk"}, Role: model.RoleSeller, Permissions: []model.Permission{model.PermissionOrders}}
		f := setup(t, admin(1), handle)
		require.NoError(t, f.rosterSvc.Remove(ctx, caller, "@clerk"))
		assert.Len(t, f.roster.operators, 1)
	})

	t.Run("unknown record", func(t *testing.T) {
		f := setup(t, admin(1), seller(2))
		assert.ErrorIs(t, f.rosterSvc.Remove(ctx, caller, "3"), model.ErrOperatorNotFound)
		assert.Len(t, f.roster.operators, 2)
	})

	t.Run("last record is protected", func(t *testing.T) {
		f := setup(t, admin(1))
		assert.ErrorIs(t, f.rosterSvc.ShowRemoveMenu(ctx, caller), model.ErrLastOperator)
		assert.ErrorIs(t, f.rosterSvc.Remove(ctx, caller, "1"), model.ErrLastOperator)
		assert.Equal(t, []model.Operator{admin(1)}, f.roster.operators)
		assert.Empty(t, f.messenger.documents)
	})
}

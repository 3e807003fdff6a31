package services

import (
	"context"
	"testing"

	"github.com/minhwang72/monsil-wedding/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactSaveListDelete(t *testing.T) {
	svc := NewContactService(newTestDB(t), testQueryTimeout)
	ctx := context.Background()

	bride, err := svc.Save(ctx, &models.ContactSaveRequest{
		Side: models.SideBride, Relation: "bride", Name: "Jiyoung", Phone: "010-1234-5678",
	})
	require.NoError(t, err)
	father, err := svc.Save(ctx, &models.ContactSaveRequest{
		Side: models.SideGroom, Relation: "father", Name: "Hwang", SortOrder: 1,
	})
	require.NoError(t, err)
	groom, err := svc.Save(ctx, &models.ContactSaveRequest{
		Side: models.SideGroom, Relation: "groom", Name: " Minho ", BankName: "KB", AccountNumber: "123-45",
	})
	require.NoError(t, err)
	assert.Equal(t, "Minho", groom.Name)

	contacts, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 3)
	assert.Equal(t, groom.ID, contacts[0].ID)
	assert.Equal(t, father.ID, contacts[1].ID)
	assert.Equal(t, bride.ID, contacts[2].ID)

	updated, err := svc.Save(ctx, &models.ContactSaveRequest{
		ID: bride.ID, Side: models.SideBride, Relation: "bride", Name: "Jiyoung", Phone: "010-9999-0000",
	})
	require.NoError(t, err)
	assert.Equal(t, bride.ID, updated.ID)
	assert.Equal(t, "010-9999-0000", updated.Phone)

	require.NoError(t, svc.Delete(ctx, father.ID))
	contacts, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, contacts, 2)
}

func TestContactNotFound(t *testing.T) {
	svc := NewContactService(newTestDB(t), testQueryTimeout)
	ctx := context.Background()

	_, err := svc.Save(ctx, &models.ContactSaveRequest{ID: 42, Side: models.SideGroom, Relation: "x", Name: "y"})
	assert.ErrorIs(t, err, ErrContactNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 42), ErrContactNotFound)
}

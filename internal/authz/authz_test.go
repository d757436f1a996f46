package authz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orangecat-platform/backend/internal/models"
)

type fakeActors struct {
	actors map[uuid.UUID]*models.Actor
	calls  int
}

func (f *fakeActors) GetByID(_ context.Context, id uuid.UUID) (*models.Actor, error) {
	f.calls++
	a, ok := f.actors[id]
	if !ok {
		return nil, assert.AnError
	}
	return a, nil
}

type fakeMemberships struct {
	rows  map[uuid.UUID]map[uuid.UUID]*models.GroupMembership
	calls int
}

func (f *fakeMemberships) MembershipFor(_ context.Context, groupID, profileID uuid.UUID) (*models.GroupMembership, error) {
	f.calls++
	m, ok := f.rows[groupID][profileID]
	if !ok {
		return nil, nil
	}
	return m, nil
}

func newTestService() (*Service, *fakeActors, *fakeMemberships) {
	actors := &fakeActors{actors: map[uuid.UUID]*models.Actor{}}
	memberships := &fakeMemberships{rows: map[uuid.UUID]map[uuid.UUID]*models.GroupMembership{}}
	return NewService(actors, memberships, zap.NewNop()), actors, memberships
}

func addUserActor(f *fakeActors, profileID uuid.UUID) uuid.UUID {
	id := uuid.New()
	f.actors[id] = &models.Actor{ID: id, Kind: models.ActorKindUser, ProfileID: &profileID}
	return id
}

func addGroupActor(f *fakeActors, groupID uuid.UUID) uuid.UUID {
	id := uuid.New()
	f.actors[id] = &models.Actor{ID: id, Kind: models.ActorKindGroup, GroupID: &groupID}
	return id
}

func TestResolveOwnerActorPath(t *testing.T) {
	svc, actors, _ := newTestService()
	profileID := uuid.New()
	actorID := addUserActor(actors, profileID)

	owner, err := svc.ResolveOwner(context.Background(), Ownership{ActorID: &actorID})
	require.NoError(t, err)
	assert.Equal(t, models.ActorKindUser, owner.Kind)
	assert.Equal(t, profileID, *owner.ProfileID)
}

func TestResolveOwnerLegacyFallback(t *testing.T) {
	svc, _, _ := newTestService()
	profileID := uuid.New()

	owner, err := svc.ResolveOwner(context.Background(), Ownership{OwnerProfileID: &profileID})
	require.NoError(t, err)
	assert.Equal(t, models.ActorKindUser, owner.Kind)
	assert.Equal(t, profileID, *owner.ProfileID)
	assert.Nil(t, owner.ActorID)
}

func TestResolveOwnerAgreementRequired(t *testing.T) {
	svc, actors, _ := newTestService()
	profileID := uuid.New()
	actorID := addUserActor(actors, profileID)

	// Both representations populated and agreeing.
	owner, err := svc.ResolveOwner(context.Background(), Ownership{ActorID: &actorID, OwnerProfileID: &profileID})
	require.NoError(t, err)
	assert.Equal(t, profileID, *owner.ProfileID)

	// Disagreement fails closed.
	other := uuid.New()
	_, err = svc.ResolveOwner(context.Background(), Ownership{ActorID: &actorID, OwnerProfileID: &other})
	assert.ErrorIs(t, err, ErrOwnershipConflict)
}

func TestResolveOwnerNoOwner(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.ResolveOwner(context.Background(), Ownership{})
	assert.ErrorIs(t, err, ErrNoOwner)
}

func TestCanReadPublicSkipsAllLookups(t *testing.T) {
	svc, actors, memberships := newTestService()

	ok, err := svc.CanRead(context.Background(), nil, true, Ownership{})
	require.NoError(t, err)
	assert.True(t, ok, "public entities are readable unauthenticated")
	assert.Zero(t, actors.calls)
	assert.Zero(t, memberships.calls)
}

func TestCanReadDraftOnlyOwner(t *testing.T) {
	svc, actors, _ := newTestService()
	ownerProfile := uuid.New()
	stranger := uuid.New()
	actorID := addUserActor(actors, ownerProfile)
	own := Ownership{ActorID: &actorID}

	ok, err := svc.CanRead(context.Background(), &ownerProfile, false, own)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CanRead(context.Background(), &stranger, false, own)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.CanRead(context.Background(), nil, false, own)
	require.NoError(t, err)
	assert.False(t, ok, "unauthenticated callers never see non-public entities")
}

func TestCanReadGroupMember(t *testing.T) {
	svc, actors, memberships := newTestService()
	groupID := uuid.New()
	actorID := addGroupActor(actors, groupID)
	member := uuid.New()
	pending := uuid.New()

	memberships.rows[groupID] = map[uuid.UUID]*models.GroupMembership{
		member:  {GroupID: groupID, ProfileID: member, Role: models.RoleMember, Status: models.MembershipActive},
		pending: {GroupID: groupID, ProfileID: pending, Role: models.RoleMember, Status: models.MembershipPending},
	}
	own := Ownership{ActorID: &actorID}

	ok, err := svc.CanRead(context.Background(), &member, false, own)
	require.NoError(t, err)
	assert.True(t, ok, "any active member may read")

	ok, err = svc.CanRead(context.Background(), &pending, false, own)
	require.NoError(t, err)
	assert.False(t, ok, "pending membership grants nothing")
}

func TestCanWriteCapabilityFlags(t *testing.T) {
	svc, actors, memberships := newTestService()
	groupID := uuid.New()
	actorID := addGroupActor(actors, groupID)
	own := Ownership{ActorID: &actorID}

	admin := uuid.New()
	plain := uuid.New()
	groupOwner := uuid.New()

	memberships.rows[groupID] = map[uuid.UUID]*models.GroupMembership{
		admin: {
			GroupID: groupID, ProfileID: admin, Role: models.RoleAdmin, Status: models.MembershipActive,
			Capabilities: models.Capabilities{CanManageProjects: true},
		},
		plain: {
			GroupID: groupID, ProfileID: plain, Role: models.RoleMember, Status: models.MembershipActive,
		},
		groupOwner: {
			GroupID: groupID, ProfileID: groupOwner, Role: models.RoleOwner, Status: models.MembershipActive,
		},
	}

	ok, err := svc.CanWrite(context.Background(), admin, own, CapManageProjects)
	require.NoError(t, err)
	assert.True(t, ok, "admin with can_manage_projects may update")

	ok, err = svc.CanWrite(context.Background(), admin, own, CapManageWallets)
	require.NoError(t, err)
	assert.False(t, ok, "capability flags are checked individually")

	ok, err = svc.CanWrite(context.Background(), plain, own, CapManageProjects)
	require.NoError(t, err)
	assert.False(t, ok, "member without the flag may not update")

	ok, err = svc.CanWrite(context.Background(), groupOwner, own, CapManageWallets)
	require.NoError(t, err)
	assert.True(t, ok, "owner role implies every capability")
}

func TestCanWriteLegacyOwnerPath(t *testing.T) {
	svc, _, memberships := newTestService()
	ownerProfile := uuid.New()
	own := Ownership{OwnerProfileID: &ownerProfile}

	ok, err := svc.CanWrite(context.Background(), ownerProfile, own, CapManageProjects)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CanWrite(context.Background(), uuid.New(), own, CapManageProjects)
	require.NoError(t, err)
	assert.False(t, ok)

	// Legacy user-owned entities never consult memberships: one direct
	// lookup path, no policy re-entry.
	assert.Zero(t, memberships.calls)
}

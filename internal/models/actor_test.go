package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestActorValidate(t *testing.T) {
	profileID := uuid.New()
	groupID := uuid.New()

	tests := []struct {
		name    string
		actor   Actor
		wantErr bool
	}{
		{"user with profile", Actor{Kind: ActorKindUser, ProfileID: &profileID}, false},
		{"group with group", Actor{Kind: ActorKindGroup, GroupID: &groupID}, false},
		{"user without profile", Actor{Kind: ActorKindUser}, true},
		{"group without group", Actor{Kind: ActorKindGroup}, true},
		{"user with both refs", Actor{Kind: ActorKindUser, ProfileID: &profileID, GroupID: &groupID}, true},
		{"group with both refs", Actor{Kind: ActorKindGroup, ProfileID: &profileID, GroupID: &groupID}, true},
		{"user with group ref only", Actor{Kind: ActorKindUser, GroupID: &groupID}, true},
		{"unknown kind", Actor{Kind: "service", ProfileID: &profileID}, true},
		{"empty kind", Actor{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.actor.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEntityRefValidate(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		ref     EntityRef
		wantErr bool
	}{
		{"project ref", EntityRef{Kind: RefKindProject, ID: id}, false},
		{"profile ref", EntityRef{Kind: RefKindProfile, ID: id}, false},
		{"wallet ref", EntityRef{Kind: RefKindWallet, ID: id}, false},
		{"unknown kind", EntityRef{Kind: "campaign", ID: id}, true},
		{"nil id", EntityRef{Kind: RefKindProject}, true},
		{"zero ref", EntityRef{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ref.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTableForKindCoversAllRefKinds(t *testing.T) {
	for _, kind := range RefKinds() {
		table, ok := TableForKind(kind)
		if !ok || table == "" {
			t.Errorf("TableForKind(%q) = %q, %v; want a table name", kind, table, ok)
		}
	}

	if _, ok := TableForKind("organization"); ok {
		t.Error("TableForKind should not resolve unregistered kinds")
	}
}

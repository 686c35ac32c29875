package cart

import (
	"testing"

	"github.com/google/uuid"
)

func TestOwnerValidate(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	token := "sess-1"

	cases := []struct {
		name    string
		owner   Owner
		wantErr bool
	}{
		{name: "account", owner: AccountOwner(accountID)},
		{name: "session", owner: SessionOwner(token)},
		{name: "neither", owner: Owner{}, wantErr: true},
		{name: "both", owner: Owner{AccountID: &accountID, SessionToken: &token}, wantErr: true},
		{name: "nil account id", owner: AccountOwner(uuid.Nil), wantErr: true},
		{name: "empty token", owner: SessionOwner(""), wantErr: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.owner.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestOwnerKey(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	if got := AccountOwner(accountID).Key(); got != "account:"+accountID.String() {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := SessionOwner("sess-1").Key(); got != "session:sess-1" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := (Owner{}).Key(); got != "unowned" {
		t.Fatalf("unexpected key: %s", got)
	}
}

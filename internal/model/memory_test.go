package model

import (
	"testing"
	"time"
)

func TestCategoryValid(t *testing.T) {
	for _, c := range Categories {
		if !c.Valid() {
			t.Errorf("%s should be valid", c)
		}
	}
	if Category("daydream").Valid() {
		t.Error("unknown category should be invalid")
	}
	if Category("").Valid() {
		t.Error("empty category should be invalid")
	}
}

func TestProtected(t *testing.T) {
	if !Core.Protected() || !Instruction.Protected() {
		t.Error("core and instruction must be protected")
	}
	for _, c := range []Category{Episodic, Semantic, Working, Fact, Summary} {
		if c.Protected() {
			t.Errorf("%s should not be protected", c)
		}
	}
}

func TestTierFor(t *testing.T) {
	cases := []struct {
		importance int
		want       Tier
	}{
		{10, TierHigh},
		{7, TierHigh},
		{6, TierMedium},
		{4, TierMedium},
		{3, TierLow},
		{1, TierLow},
		{0, TierLow},
	}
	for _, tc := range cases {
		if got := TierFor(tc.importance); got != tc.want {
			t.Errorf("TierFor(%d) = %+v, want %+v", tc.importance, got, tc.want)
		}
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	if (&Memory{}).Expired(now) {
		t.Error("no expiry means never expired")
	}
	if !(&Memory{ExpiresAt: &past}).Expired(now) {
		t.Error("past expiry should be expired")
	}
	if (&Memory{ExpiresAt: &future}).Expired(now) {
		t.Error("future expiry should not be expired")
	}
	if !(&Memory{ExpiresAt: &now}).Expired(now) {
		t.Error("expiry exactly at now counts as expired")
	}
}

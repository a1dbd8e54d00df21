package middleware

import (
	"testing"
	"time"
)

func TestLoginProtection_LockoutAfterMaxAttempts(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		MaxFailedAttempts: 3,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})

	if locked, _ := lp.IsAccountLocked("admin"); locked {
		t.Fatal("fresh account should not be locked")
	}

	lp.RecordFailedAttempt("admin")
	lp.RecordFailedAttempt("admin")
	if locked, _ := lp.IsAccountLocked("admin"); locked {
		t.Fatal("account locked before reaching max attempts")
	}

	locked, dur := lp.RecordFailedAttempt("admin")
	if !locked {
		t.Fatal("account should lock on third failed attempt")
	}
	if dur != time.Minute {
		t.Errorf("lock duration = %v, want %v", dur, time.Minute)
	}

	if locked, remaining := lp.IsAccountLocked("admin"); !locked || remaining <= 0 {
		t.Errorf("IsAccountLocked = (%v, %v), want locked with remaining time", locked, remaining)
	}
}

func TestLoginProtection_SuccessClearsAttempts(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		MaxFailedAttempts: 3,
	})

	lp.RecordFailedAttempt("admin")
	lp.RecordFailedAttempt("admin")
	if got := lp.GetRemainingAttempts("admin"); got != 1 {
		t.Errorf("GetRemainingAttempts = %d, want 1", got)
	}

	lp.RecordSuccessfulLogin("admin")
	if got := lp.GetRemainingAttempts("admin"); got != 3 {
		t.Errorf("GetRemainingAttempts after success = %d, want 3", got)
	}
}

func TestLoginProtection_AccountsIndependent(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{
		MaxFailedAttempts: 2,
	})

	lp.RecordFailedAttempt("admin")
	lp.RecordFailedAttempt("admin")

	if locked, _ := lp.IsAccountLocked("admin"); !locked {
		t.Error("admin should be locked")
	}
	if locked, _ := lp.IsAccountLocked("other"); locked {
		t.Error("unrelated account should not be locked")
	}
}

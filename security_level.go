package goIdentity

import "context"

// Requirement is one predicate gating a security level. Description is the
// user-facing explanation returned by MissingRequirements.
type Requirement struct {
	Check       func(u *User) bool
	Description string
}

// securityRequirements holds the shipped rule sets in declared order. The
// shipped sets are monotonic (maximum's predicates subsume enhanced's), but
// evaluation must not rely on that: CurrentLevel walks from the top so the
// highest satisfied tier always wins even under non-cumulative future sets.
var securityRequirements = map[SecurityLevel][]Requirement{
	LevelBasic: {},
	LevelEnhanced: {
		{
			Check:       func(u *User) bool { return u.TwoFactorEnabled },
			Description: "Enable two-factor authentication",
		},
		{
			Check:       func(u *User) bool { return len(u.SecurityQuestions) >= 2 },
			Description: "Set up at least 2 security questions",
		},
	},
	LevelMaximum: {
		{
			Check:       func(u *User) bool { return u.TwoFactorEnabled },
			Description: "Enable two-factor authentication",
		},
		{
			Check:       func(u *User) bool { return len(u.SecurityQuestions) >= 3 },
			Description: "Set up at least 3 security questions",
		},
		{
			Check:       hasVerifiedDocument,
			Description: "Verify your identity with official documents",
		},
	},
}

func hasVerifiedDocument(u *User) bool {
	for _, doc := range u.IdentityDocuments {
		if doc.Status == DocumentVerified {
			return true
		}
	}
	return false
}

// MeetsLevel reports whether every requirement of the level holds for the
// user.
func MeetsLevel(u *User, level SecurityLevel) bool {
	for _, req := range securityRequirements[level] {
		if !req.Check(u) {
			return false
		}
	}
	return true
}

// CurrentLevel returns the highest level whose requirements the user
// currently satisfies.
func CurrentLevel(u *User) SecurityLevel {
	for _, level := range []SecurityLevel{LevelMaximum, LevelEnhanced} {
		if MeetsLevel(u, level) {
			return level
		}
	}
	return LevelBasic
}

// MissingRequirements returns the descriptions of the target level's failing
// requirements, in declared order. An empty slice means the level is met.
func MissingRequirements(u *User, target SecurityLevel) []string {
	var missing []string
	for _, req := range securityRequirements[target] {
		if !req.Check(u) {
			missing = append(missing, req.Description)
		}
	}
	return missing
}

// SecurityLevelOf recomputes the user's current tier from the live
// requirement predicates. It does not persist anything.
func (e *Engine) SecurityLevelOf(u *User) SecurityLevel {
	return CurrentLevel(u)
}

// MissingRequirements reports what still blocks the user from the target
// tier.
func (e *Engine) MissingRequirements(u *User, target SecurityLevel) []string {
	return MissingRequirements(u, target)
}

// setSecurityLevel applies a recomputed (or overridden) level to the user
// snapshot and records the transition when the level actually changed. The
// caller persists the snapshot.
func (e *Engine) setSecurityLevel(ctx context.Context, u *User, level SecurityLevel) {
	if u.SecurityLevel == level {
		return
	}

	from := u.SecurityLevel
	u.SecurityLevel = level

	e.metricInc(MetricLevelChanged)
	e.logActivity(ctx, u, ActivityLevelChanged, LevelChangedDetail{From: from, To: level})
}

// refreshSecurityLevel recomputes and applies the derived level. Called
// after every mutation that can affect a requirement predicate.
func (e *Engine) refreshSecurityLevel(ctx context.Context, u *User) {
	e.setSecurityLevel(ctx, u, CurrentLevel(u))
}

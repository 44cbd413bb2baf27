package domain

// SafetyFeatures holds raw contract/ownership/liquidity facts for a token.
// Supplied by an external safety-data source, immutable per check.
type SafetyFeatures struct {
	TokenAddress     string
	IsVerified       bool
	IsMintable       bool
	HasBlacklist     bool
	OwnerRenounced   bool
	OwnerBalancePct  float64 // percent of supply held by owner
	LiquidityLocked  bool
	LockDurationDays float64
}

// RiskScores holds the component and composite risk scores, each in [0,100].
type RiskScores struct {
	Contract  float64
	Ownership float64
	Liquidity float64
	Overall   float64
}

// SafetyStatus classifies a token's overall risk.
type SafetyStatus string

const (
	StatusSafe       SafetyStatus = "safe"
	StatusMediumRisk SafetyStatus = "medium_risk"
	StatusHighRisk   SafetyStatus = "high_risk"
)

// String returns the string representation of SafetyStatus.
func (s SafetyStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a valid value.
func (s SafetyStatus) IsValid() bool {
	return s == StatusSafe || s == StatusMediumRisk || s == StatusHighRisk
}

// Warning tags emitted by the safety scorer, in fixed check order.
const (
	WarningUnverifiedContract = "unverified_contract"
	WarningMintableToken      = "mintable_token"
	WarningUnlockedLiquidity  = "unlocked_liquidity"
	WarningHighOwnerBalance   = "high_owner_balance"
)

// SafetyReport is the scored result for a token address.
// Cached by the safety scorer for the configured TTL.
type SafetyReport struct {
	TokenAddress string
	Risk         RiskScores
	Status       SafetyStatus
	Warnings     []string // fixed check order, deterministic per features
	ComputedAtMs int64    // Unix timestamp in milliseconds
}

package domain

type Region string

const (
	RegionUK Region = "UK"
	RegionFR Region = "FR"
	RegionDE Region = "DE"
	RegionUS Region = "US"
)

type AccountStatus string

const (
	AccountConnected      AccountStatus = "connected"
	AccountReauthRequired AccountStatus = "reauth_required"
	AccountPending        AccountStatus = "pending"
)

type AccountSettings struct {
	// MinDelayBetweenPosts is the cool-down between repeat marketplace
	// actions for this account, in minutes.
	MinDelayBetweenPosts int
}

type Account struct {
	ID       string
	Username string
	Region   Region
	Status   AccountStatus
	Settings AccountSettings
}

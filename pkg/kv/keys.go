package kv

// Credential and profile keys.
const (
	KeyAuthToken       = "auth_token"
	KeyRefreshToken    = "refresh_token"
	KeyUser            = "user_data"
	KeyCart            = "cart_data"
	KeyWishlist        = "wishlist_items"
	KeyRecentSearches  = "recent_searches"
	KeyUserPreferences = "user_preferences"
	KeyTheme           = "app_theme"
	KeyLanguage        = "app_language"
)

// Snapshot keys, one per persisted store.
const (
	StoreAuth        = "auth-storage"
	StoreCart        = "cart-storage"
	StoreWishlist    = "wishlist-storage"
	StorePreferences = "ui-storage"
)

// SessionKeys is every key owned by the signed-in shopper. Logout deletes all of them.
// A persisted store must appear here or in DeviceKeys; see Classified.
var SessionKeys = []string{
	KeyAuthToken,
	KeyRefreshToken,
	KeyUser,
	KeyCart,
	KeyWishlist,
	KeyRecentSearches,
	StoreAuth,
	StoreCart,
	StoreWishlist,
}

// DeviceKeys survive logout.
var DeviceKeys = []string{
	KeyUserPreferences,
	KeyTheme,
	KeyLanguage,
	StorePreferences,
}

// CredentialKeys are cleared when a token refresh fails.
var CredentialKeys = []string{
	KeyAuthToken,
	KeyRefreshToken,
}

// Classified reports whether key has an explicit logout policy.
func Classified(key string) bool {
	for _, k := range SessionKeys {
		if k == key {
			return true
		}
	}
	for _, k := range DeviceKeys {
		if k == key {
			return true
		}
	}
	return false
}

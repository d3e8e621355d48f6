package bundle

import "context"

// Filter narrows a catalog lookup to one group and one coverage area. Exactly
// one of Region or Country should be set.
type Filter struct {
	GroupName string
	Region    string
	Country   string
}

// Repository defines the read-only interface to the bundle catalog
type Repository interface {
	// FindBundles returns all catalog bundles matching the filter
	FindBundles(ctx context.Context, filter *Filter) ([]*Bundle, error)
}

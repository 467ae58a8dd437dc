package exporter

import (
	"bilifollow/pkg/enrich"
	"bilifollow/pkg/following"
	"bilifollow/pkg/identity"
)

// API is everything a run needs from the Bilibili client
type API interface {
	identity.NavAPI
	following.PageAPI
	enrich.API
}

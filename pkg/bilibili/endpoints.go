package bilibili

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

const (
	// BaseURL is the base URL of the web API
	BaseURL = "https://api.bilibili.com"

	// Referer is sent with every request
	Referer = "https://space.bilibili.com/"

	NavEndpoint          = "/x/web-interface/nav"
	FollowingsEndpoint   = "/x/relation/followings"
	RelationStatEndpoint = "/x/relation/stat"
	UpStatEndpoint       = "/x/space/upstat"
	NavNumEndpoint       = "/x/space/navnum"
	AccountInfoEndpoint  = "/x/space/acc/info"

	// MaxPageSize is the largest page the followings endpoint serves
	MaxPageSize = 50
)

// SpaceURL returns the public profile page of mid
func SpaceURL(mid int64) string {
	return fmt.Sprintf("https://space.bilibili.com/%d", mid)
}

func midQuery(key string, mid int64) url.Values {
	q := url.Values{}
	q.Set(key, strconv.FormatInt(mid, 10))
	return q
}

// Nav returns the login state of the session
func (c *Client) Nav(ctx context.Context) (*NavInfo, error) {
	var info NavInfo
	if err := c.GetJSON(ctx, NavEndpoint, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Followings fetches one page of the accounts vmid follows
func (c *Client) Followings(ctx context.Context, vmid int64, page, pageSize int) (*FollowingPage, error) {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	q := midQuery("vmid", vmid)
	q.Set("pn", strconv.Itoa(page))
	q.Set("ps", strconv.Itoa(pageSize))

	var p FollowingPage
	if err := c.GetJSON(ctx, FollowingsEndpoint, q, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// RelationStat returns the follower count of mid
func (c *Client) RelationStat(ctx context.Context, mid int64) (*RelationStat, error) {
	var s RelationStat
	if err := c.GetJSON(ctx, RelationStatEndpoint, midQuery("vmid", mid), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpStat returns the like count of mid
func (c *Client) UpStat(ctx context.Context, mid int64) (*UpStat, error) {
	var s UpStat
	if err := c.GetJSON(ctx, UpStatEndpoint, midQuery("mid", mid), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// NavNum returns the upload counts of mid
func (c *Client) NavNum(ctx context.Context, mid int64) (*NavNum, error) {
	var n NavNum
	if err := c.GetJSON(ctx, NavNumEndpoint, midQuery("mid", mid), &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// AccountInfo returns level and verification of mid. Official is already
// normalised, see CanonicalOfficial.
func (c *Client) AccountInfo(ctx context.Context, mid int64) (*AccountInfo, error) {
	var info AccountInfo
	if err := c.GetJSON(ctx, AccountInfoEndpoint, midQuery("mid", mid), &info); err != nil {
		return nil, err
	}
	info.Official = CanonicalOfficial(info.Official, info.OfficialVerify)
	return &info, nil
}

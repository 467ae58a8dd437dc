package bilibili

// NavInfo is the login state returned by the nav endpoint
type NavInfo struct {
	IsLogin bool   `json:"isLogin"`
	Mid     int64  `json:"mid"`
	Uname   string `json:"uname"`
}

// FollowingPage is one page of the followings endpoint
type FollowingPage struct {
	List  []FollowingEntry `json:"list"`
	Total int              `json:"total"`
}

// FollowingEntry is one followed account. The pointer fields after
// OfficialVerify are only set when enrichment fetched them.
type FollowingEntry struct {
	Mid            int64           `json:"mid"`
	Uname          string          `json:"uname"`
	Face           string          `json:"face"`
	Sign           *string         `json:"sign"`
	OfficialVerify *OfficialVerify `json:"official_verify,omitempty"`

	Followers  *int64    `json:"followers,omitempty"`
	Likes      *int64    `json:"likes,omitempty"`
	VideoCount *int64    `json:"videoCount,omitempty"`
	Level      *int      `json:"level,omitempty"`
	Official   *Official `json:"official,omitempty"`
}

// Bio returns the signature, or "" when the account has none
func (e FollowingEntry) Bio() string {
	if e.Sign == nil {
		return ""
	}
	return *e.Sign
}

// Official is the canonical verification record
type Official struct {
	Role  int    `json:"role"`
	Title string `json:"title"`
	Desc  string `json:"desc"`
	Type  int    `json:"type"`
}

// Verified reports whether the record describes an actual verification
func (o *Official) Verified() bool {
	if o == nil || o.Type < 0 {
		return false
	}
	return o.Role > 0 || o.Title != "" || o.Desc != ""
}

// Label is the text shown for a verification badge
func (o *Official) Label() string {
	if o == nil {
		return ""
	}
	if o.Title != "" {
		return o.Title
	}
	return o.Desc
}

func (o *Official) empty() bool {
	return o == nil || (o.Role == 0 && o.Title == "" && o.Desc == "")
}

// OfficialVerify is the older verification shape still carried by list
// entries and some account responses
type OfficialVerify struct {
	Type int    `json:"type"`
	Desc string `json:"desc"`
}

// CanonicalOfficial picks one verification record. A non-empty official wins;
// otherwise a non-empty official_verify is converted; otherwise whatever
// official record exists (possibly nil) is returned unchanged.
func CanonicalOfficial(official *Official, verify *OfficialVerify) *Official {
	if !official.empty() {
		return official
	}
	if verify != nil && verify.Desc != "" {
		return &Official{Type: verify.Type, Desc: verify.Desc, Title: verify.Desc}
	}
	return official
}

// RelationStat is the response of the relation stat endpoint
type RelationStat struct {
	Mid       int64 `json:"mid"`
	Following int64 `json:"following"`
	Follower  int64 `json:"follower"`
}

// UpStat is the response of the uploader stat endpoint
type UpStat struct {
	Archive struct {
		View int64 `json:"view"`
	} `json:"archive"`
	Article struct {
		View int64 `json:"view"`
	} `json:"article"`
	Likes int64 `json:"likes"`
}

// NavNum is the response of the space nav counts endpoint
type NavNum struct {
	Video   int64 `json:"video"`
	Article int64 `json:"article"`
	Album   int64 `json:"album"`
}

// AccountInfo is the subset of the account info response used here
type AccountInfo struct {
	Mid            int64           `json:"mid"`
	Name           string          `json:"name"`
	Level          int             `json:"level"`
	Official       *Official       `json:"official"`
	OfficialVerify *OfficialVerify `json:"official_verify"`
}

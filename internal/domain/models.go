package domain

import (
	"database/sql"
	"time"
)

// Permission names granted through user_permissions.
const (
	PermAddonsEdit   = "Addons:Edit"
	PermAddonsReview = "Addons:Review"
)

type AddonStatus string

const (
	AddonStatusPublic   AddonStatus = "public"
	AddonStatusPending  AddonStatus = "pending"
	AddonStatusDisabled AddonStatus = "disabled"
)

type VersionStatus string

const (
	VersionStatusPublic   VersionStatus = "public"
	VersionStatusPending  VersionStatus = "pending"
	VersionStatusDisabled VersionStatus = "disabled"
)

type User struct {
	ID       int64  `db:"id"`
	Username string `db:"username"`
	Email    string `db:"email"`
}

type Addon struct {
	ID             int64       `db:"id"`
	GUID           string      `db:"guid"`
	Slug           string      `db:"slug"`
	Name           string      `db:"name"`
	Status         AddonStatus `db:"status"`
	IsListed       bool        `db:"is_listed"`
	DisabledByUser bool        `db:"disabled_by_user"`
	Deleted        bool        `db:"deleted"`
}

// IsPublic reports whether the add-on is listed, approved and not disabled.
func (a *Addon) IsPublic() bool {
	return a.Status == AddonStatusPublic && a.IsListed && !a.DisabledByUser && !a.Deleted
}

func (a *Addon) IsDisabled() bool {
	return a.Status == AddonStatusDisabled || a.DisabledByUser
}

type Version struct {
	ID        int64         `db:"id"`
	AddonID   int64         `db:"addon_id"`
	Version   string        `db:"version"`
	Status    VersionStatus `db:"status"`
	LicenseID sql.NullInt64 `db:"license_id"`
	Deleted   bool          `db:"deleted"`
	Created   time.Time     `db:"created"`
}

func (v *Version) IsPublic() bool {
	return v.Status == VersionStatusPublic && !v.Deleted
}

type Review struct {
	ID           int64          `db:"id"`
	AddonID      int64          `db:"addon_id"`
	VersionID    sql.NullInt64  `db:"version_id"`
	UserID       int64          `db:"user_id"`
	ReplyTo      sql.NullInt64  `db:"reply_to"`
	Rating       sql.NullInt16  `db:"rating"`
	Title        sql.NullString `db:"title"`
	Body         sql.NullString `db:"body"`
	IPAddress    string         `db:"ip_address"`
	EditorReview bool           `db:"editorreview"`
	IsLatest     bool           `db:"is_latest"`
	Deleted      bool           `db:"deleted"`
	Created      time.Time      `db:"created"`
	Modified     time.Time      `db:"modified"`

	// Joined columns, filled by read queries.
	VersionString sql.NullString `db:"version_string"`
	Username      string         `db:"username"`
	AddonSlug     string         `db:"addon_slug"`

	Reply *Review `db:"-"`
}

func (r *Review) IsReply() bool {
	return r.ReplyTo.Valid
}

type FlagReason string

const (
	FlagSpam       FlagReason = "review_flag_reason_spam"
	FlagLanguage   FlagReason = "review_flag_reason_language"
	FlagBugSupport FlagReason = "review_flag_reason_bug_support"
	FlagOther      FlagReason = "review_flag_reason_other"
)

type ReviewFlag struct {
	ID       int64          `db:"id"`
	ReviewID int64          `db:"review_id"`
	UserID   int64          `db:"user_id"`
	Flag     FlagReason     `db:"flag"`
	Note     sql.NullString `db:"note"`
	Created  time.Time      `db:"created"`
	Modified time.Time      `db:"modified"`
}

// Caller is the identity a request acts as. A zero UserID is anonymous.
type Caller struct {
	UserID      int64
	Permissions map[string]struct{}
	IPAddress   string
}

func (c Caller) IsAnonymous() bool {
	return c.UserID == 0
}

func (c Caller) Has(perm string) bool {
	_, ok := c.Permissions[perm]
	return ok
}

// ReviewScope selects the reviews a listing covers. Exactly one field is expected to be set.
type ReviewScope struct {
	AddonRef string
	UserID   int64
}

type ListFilter string

const (
	FilterDefault     ListFilter = ""
	FilterWithDeleted ListFilter = "with_deleted"
)

type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() uint64 {
	if p.Number < 1 {
		return 0
	}

	return uint64((p.Number - 1) * p.Size)
}

type ReviewList struct {
	Count          int
	Reviews        []Review
	GroupedRatings map[int]int
}

type ActivityAction int

const (
	ActionAddReview      ActivityAction = 29
	ActionEditReview     ActivityAction = 107
	ActionDeleteReview   ActivityAction = 40
	ActionUndeleteReview ActivityAction = 41
	ActionChangeLicense  ActivityAction = 37
)

type ActivityLog struct {
	ID        int64          `db:"id"`
	UserID    sql.NullInt64  `db:"user_id"`
	Action    ActivityAction `db:"action"`
	AddonID   sql.NullInt64  `db:"addon_id"`
	ReviewID  sql.NullInt64  `db:"review_id"`
	LicenseID sql.NullInt64  `db:"license_id"`
	Created   time.Time      `db:"created"`
}

type License struct {
	ID      int64         `db:"id"`
	NameID  sql.NullInt64 `db:"name_id"`
	TextID  sql.NullInt64 `db:"text_id"`
	OnForm  bool          `db:"on_form"`
	Builtin int           `db:"builtin"`
}

type Translation struct {
	ID              int64  `db:"id"`
	Locale          string `db:"locale"`
	LocalizedString string `db:"localized_string"`
}

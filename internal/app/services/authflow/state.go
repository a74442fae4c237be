package authflow

// Kind enumerates the top-level flow states. Exactly one is active at a time.
type Kind string

const (
	KindLoading           Kind = "loading"
	KindSignedOut         Kind = "signed_out"
	KindEmailVerification Kind = "email_verification"
	KindProfileSetup      Kind = "profile_setup"
	KindMain              Kind = "main"
)

// State is the flow state driving top-level navigation. UserID is set only
// for KindMain.
type State struct {
	Kind   Kind
	UserID string
}

// Loading, SignedOut and friends build the fixed states; Main carries the
// signed-in user id.
func Loading() State           { return State{Kind: KindLoading} }
func SignedOut() State         { return State{Kind: KindSignedOut} }
func EmailVerification() State { return State{Kind: KindEmailVerification} }
func ProfileSetup() State      { return State{Kind: KindProfileSetup} }
func Main(userID string) State { return State{Kind: KindMain, UserID: userID} }

// Snapshot is the coordinator's externally visible condition: the state plus
// the cause of the last degraded resolution. A SignedOut state with Transient
// set means the backend failed mid-refresh and the user may still hold a
// valid session; callers should offer a retry instead of a sign-in form.
type Snapshot struct {
	State     State
	Err       error
	Transient bool
}

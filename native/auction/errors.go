package auction

import "errors"

var (
	// ErrAlreadyListed is returned when the asset already has an active
	// listing.
	ErrAlreadyListed = errors.New("auction: asset already listed")
	// ErrNotListed is returned when no listing exists for the asset.
	ErrNotListed = errors.New("auction: asset is not listed")
	// ErrNotOwner rejects listing-scoped calls from anyone but the seller.
	ErrNotOwner = errors.New("auction: caller is not the owner of the asset")
	// ErrSelfTrade rejects accepting the seed bid and buying one's own
	// listing.
	ErrSelfTrade = errors.New("auction: cannot trade with yourself")
	// ErrBidTooLow enforces the minimum 3% increment over the top bid.
	ErrBidTooLow = errors.New("auction: bid must exceed the top bid by at least 3%")
	// ErrInsufficientPayment is returned by the instant purchase path when
	// the attached value is below the ask price.
	ErrInsufficientPayment = errors.New("auction: attached value below ask price")
	// ErrNotApproved is returned by AcceptOffer when the registry has not
	// been pre-authorized to move the asset on the seller's behalf.
	ErrNotApproved = errors.New("auction: module not approved to transfer asset")
)

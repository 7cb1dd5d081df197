package market_sync

const (
	EventListingCreated       = "ListingCreated"
	EventTransactionStarted   = "TransactionStarted"
	EventTransactionConfirmed = "TransactionConfirmed"
	EventTransactionCompleted = "TransactionCompleted"
	EventDisputeCreated       = "DisputeCreated"
	EventDisputeResolved      = "DisputeResolved"
	EventReviewSubmitted      = "ReviewSubmitted"
)

// Event fragment of the marketplace contract ABI
const marketplaceAbiJson = `[
	{
		"type": "event",
		"name": "ListingCreated",
		"inputs": [
			{"name": "listingId", "type": "uint256", "indexed": true},
			{"name": "owner", "type": "address", "indexed": false},
			{"name": "category", "type": "string", "indexed": false},
			{"name": "price", "type": "uint256", "indexed": false},
			{"name": "deposit", "type": "uint256", "indexed": false},
			{"name": "contentHash", "type": "string", "indexed": false},
			{"name": "isForRent", "type": "bool", "indexed": false}
		]
	},
	{
		"type": "event",
		"name": "TransactionStarted",
		"inputs": [
			{"name": "transactionId", "type": "uint256", "indexed": true},
			{"name": "listingId", "type": "uint256", "indexed": true},
			{"name": "buyer", "type": "address", "indexed": false},
			{"name": "seller", "type": "address", "indexed": false},
			{"name": "amount", "type": "uint256", "indexed": false},
			{"name": "kind", "type": "uint8", "indexed": false}
		]
	},
	{
		"type": "event",
		"name": "TransactionConfirmed",
		"inputs": [
			{"name": "transactionId", "type": "uint256", "indexed": true},
			{"name": "confirmedBy", "type": "address", "indexed": false}
		]
	},
	{
		"type": "event",
		"name": "TransactionCompleted",
		"inputs": [
			{"name": "transactionId", "type": "uint256", "indexed": true},
			{"name": "timestamp", "type": "uint256", "indexed": false}
		]
	},
	{
		"type": "event",
		"name": "DisputeCreated",
		"inputs": [
			{"name": "disputeId", "type": "uint256", "indexed": true},
			{"name": "transactionId", "type": "uint256", "indexed": true},
			{"name": "initiator", "type": "address", "indexed": false},
			{"name": "reason", "type": "string", "indexed": false}
		]
	},
	{
		"type": "event",
		"name": "DisputeResolved",
		"inputs": [
			{"name": "disputeId", "type": "uint256", "indexed": true},
			{"name": "winner", "type": "address", "indexed": false},
			{"name": "timestamp", "type": "uint256", "indexed": false}
		]
	},
	{
		"type": "event",
		"name": "ReviewSubmitted",
		"inputs": [
			{"name": "reviewId", "type": "uint256", "indexed": true},
			{"name": "transactionId", "type": "uint256", "indexed": true},
			{"name": "reviewer", "type": "address", "indexed": false},
			{"name": "reviewee", "type": "address", "indexed": false},
			{"name": "rating", "type": "uint8", "indexed": false},
			{"name": "contentHash", "type": "string", "indexed": false}
		]
	}
]`

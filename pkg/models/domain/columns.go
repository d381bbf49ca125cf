package domain

// Sales and subscription event report columns.
const (
	ColSKU                   = "SKU"
	ColTitle                 = "Title"
	ColUnits                 = "Units"
	ColDeveloperProceeds     = "Developer Proceeds"
	ColCustomerCurrency      = "Customer Currency"
	ColCustomerPrice         = "Customer Price"
	ColCountryCode           = "Country Code"
	ColCurrencyOfProceeds    = "Currency of Proceeds"
	ColAppleIdentifier       = "Apple Identifier"
	ColParentIdentifier      = "Parent Identifier"
	ColProductTypeIdentifier = "Product Type Identifier"
	ColSubscription          = "Subscription"
	ColBeginDate             = "Begin Date"
)

// Financial report columns.
const (
	ColQuantity             = "Quantity"
	ColPartnerShare         = "Partner Share"
	ColExtendedPartnerShare = "Extended Partner Share"
	ColPartnerShareCurrency = "Partner Share Currency"
	ColSalesOrReturn        = "Sales or Return"
	ColVendorIdentifier     = "Vendor Identifier"
	ColCountryOfSale        = "Country Of Sale"
)

// Subscription summary report columns.
const (
	ColAppName                = "App Name"
	ColAppAppleID             = "App Apple ID"
	ColSubscriptionName       = "Subscription Name"
	ColSubscriptionAppleID    = "Subscription Apple ID"
	ColSubscriptionDuration   = "Standard Subscription Duration"
	ColProceedsCurrency       = "Proceeds Currency"
	ColCountry                = "Country"
	ColActiveStandard         = "Active Standard Price Subscriptions"
	ColActiveFreeTrial        = "Active Free Trial Introductory Offer Subscriptions"
	ColActivePayUpFront       = "Active Pay Up Front Introductory Offer Subscriptions"
	ColActivePayAsYouGo       = "Active Pay As You Go Introductory Offer Subscriptions"
	SubscriptionStateNew      = "New"
	SubscriptionStateRenewal  = "Renewal"
	SalesOrReturnReturnMarker = "R"
)

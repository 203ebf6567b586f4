package domain

// Typed views over draft sections. Field tags match the section keys sent by
// the form renderer.

type Address struct {
	Street string `mapstructure:"street" json:"street,omitempty"`
	City   string `mapstructure:"city" json:"city,omitempty"`
	State  string `mapstructure:"state" json:"state,omitempty"`
	Zip    string `mapstructure:"zip" json:"zip,omitempty"`
}

type InsuredDetails struct {
	FirstName        string  `mapstructure:"firstName" json:"firstName,omitempty"`
	LastName         string  `mapstructure:"lastName" json:"lastName,omitempty"`
	OrganizationName string  `mapstructure:"organizationName" json:"organizationName,omitempty"`
	Email            string  `mapstructure:"email" json:"email,omitempty"`
	Phone            string  `mapstructure:"phone" json:"phone,omitempty"`
	MailingAddress   Address `mapstructure:"mailingAddress" json:"mailingAddress"`
}

type PolicyDetails struct {
	CarrierName    string `mapstructure:"carrierName" json:"carrierName,omitempty"`
	PolicyNumber   string `mapstructure:"policyNumber" json:"policyNumber,omitempty"`
	EffectiveDate  string `mapstructure:"effectiveDate" json:"effectiveDate,omitempty"`
	ExpirationDate string `mapstructure:"expirationDate" json:"expirationDate,omitempty"`
}

type Coverage struct {
	Type       string  `mapstructure:"type" json:"type,omitempty"`
	Limit      float64 `mapstructure:"limit" json:"limit,omitempty"`
	Deductible float64 `mapstructure:"deductible" json:"deductible,omitempty"`
}

type LossDetails struct {
	Reason          string  `mapstructure:"reason" json:"reason,omitempty"`
	Date            string  `mapstructure:"date" json:"date,omitempty"`
	Description     string  `mapstructure:"description" json:"description,omitempty"`
	EstimatedAmount float64 `mapstructure:"estimatedAmount" json:"estimatedAmount,omitempty"`
}

type PropertyDetails struct {
	Address      Address `mapstructure:"address" json:"address"`
	PropertyType string  `mapstructure:"propertyType" json:"propertyType,omitempty"`
	YearBuilt    int     `mapstructure:"yearBuilt" json:"yearBuilt,omitempty"`
}

type ContractDetails struct {
	ContractType  string   `mapstructure:"contractType" json:"contractType,omitempty"`
	FeePercentage *float64 `mapstructure:"feePercentage" json:"feePercentage,omitempty"`
	SignedDate    string   `mapstructure:"signedDate" json:"signedDate,omitempty"`
}

type PersonnelMember struct {
	Name  string `mapstructure:"name" json:"name,omitempty"`
	Role  string `mapstructure:"role" json:"role,omitempty"`
	Email string `mapstructure:"email" json:"email,omitempty"`
}

type Document struct {
	Name string `mapstructure:"name" json:"name,omitempty"`
	Kind string `mapstructure:"kind" json:"kind,omitempty"`
	URL  string `mapstructure:"url" json:"url,omitempty"`
}

type ReviewDetails struct {
	Confirmed bool   `mapstructure:"confirmed" json:"confirmed"`
	Notes     string `mapstructure:"notes" json:"notes,omitempty"`
}

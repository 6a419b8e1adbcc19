package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Account is a Salesforce Account record.
type Account struct {
	ID                string  `json:"Id" salesforce:"Id"`
	Name              string  `json:"Name" salesforce:"Name"`
	Website           string  `json:"Website" salesforce:"Website"`
	Industry          string  `json:"Industry" salesforce:"Industry"`
	BillingState      string  `json:"BillingState" salesforce:"BillingState"`
	BillingCountry    string  `json:"BillingCountry" salesforce:"BillingCountry"`
	NumberOfEmployees int     `json:"NumberOfEmployees" salesforce:"NumberOfEmployees"`
	AnnualRevenue     float64 `json:"AnnualRevenue" salesforce:"AnnualRevenue"`
}

var accountFields = []string{
	"Id", "Name", "Website", "Industry", "BillingState", "BillingCountry",
	"NumberOfEmployees", "AnnualRevenue",
}

// Opportunity is a Salesforce Opportunity record.
type Opportunity struct {
	ID               string  `json:"Id" salesforce:"Id"`
	Name             string  `json:"Name" salesforce:"Name"`
	Amount           float64 `json:"Amount" salesforce:"Amount"`
	StageName        string  `json:"StageName" salesforce:"StageName"`
	AccountID        string  `json:"AccountId" salesforce:"AccountId"`
	RecordTypeID     string  `json:"RecordTypeId" salesforce:"RecordTypeId"`
	CloseDate        string  `json:"CloseDate" salesforce:"CloseDate"`
	CreatedDate      string  `json:"CreatedDate" salesforce:"CreatedDate"`
	LastModifiedDate string  `json:"LastModifiedDate" salesforce:"LastModifiedDate"`
}

var opportunityFields = []string{
	"Id", "Name", "Amount", "StageName", "AccountId", "RecordTypeId",
	"CloseDate", "CreatedDate", "LastModifiedDate",
}

// OpportunityStage is one picklist value of Opportunity.StageName.
type OpportunityStage struct {
	APIName     string  `json:"ApiName" salesforce:"ApiName"`
	MasterLabel string  `json:"MasterLabel" salesforce:"MasterLabel"`
	SortOrder   float64 `json:"SortOrder" salesforce:"SortOrder"`
}

// maxRecords caps open opportunity reads to match the HubSpot page cap.
const maxRecords = 5000

// FindOpenOpportunities returns open opportunities, optionally limited to one
// record type by developer name.
func FindOpenOpportunities(ctx context.Context, c Client, recordType string) ([]Opportunity, error) {
	soql := fmt.Sprintf("SELECT %s FROM Opportunity WHERE IsClosed = false", strings.Join(opportunityFields, ", "))
	if recordType != "" {
		soql += fmt.Sprintf(" AND RecordType.DeveloperName = '%s'", escapeSoql(recordType))
	}
	soql += fmt.Sprintf(" ORDER BY CreatedDate LIMIT %d", maxRecords)

	var opps []Opportunity
	if err := c.Query(ctx, soql, &opps); err != nil {
		return nil, eris.Wrap(err, "sf: find open opportunities")
	}
	return opps, nil
}

// FindWonOpportunities returns closed-won opportunities that have an account.
func FindWonOpportunities(ctx context.Context, c Client) ([]Opportunity, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Opportunity WHERE IsWon = true AND AccountId != null ORDER BY CloseDate",
		strings.Join(opportunityFields, ", "),
	)
	var opps []Opportunity
	if err := c.Query(ctx, soql, &opps); err != nil {
		return nil, eris.Wrap(err, "sf: find won opportunities")
	}
	return opps, nil
}

// FindOpenStages returns active, open opportunity stages in sort order.
func FindOpenStages(ctx context.Context, c Client) ([]OpportunityStage, error) {
	soql := "SELECT ApiName, MasterLabel, SortOrder FROM OpportunityStage " +
		"WHERE IsActive = true AND IsClosed = false ORDER BY SortOrder"
	var stages []OpportunityStage
	if err := c.Query(ctx, soql, &stages); err != nil {
		return nil, eris.Wrap(err, "sf: find opportunity stages")
	}
	return stages, nil
}

// FindAccountByID queries Salesforce for an Account by its ID.
// Returns nil if no account is found.
func FindAccountByID(ctx context.Context, c Client, id string) (*Account, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Account WHERE Id = '%s' LIMIT 1",
		strings.Join(accountFields, ", "),
		escapeSoql(id),
	)

	var accounts []Account
	if err := c.Query(ctx, soql, &accounts); err != nil {
		return nil, eris.Wrapf(err, "sf: find account by id %s", id)
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return &accounts[0], nil
}

// FindAccountsByIDs loads accounts whose Id is in ids.
func FindAccountsByIDs(ctx context.Context, c Client, ids []string) ([]Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = "'" + escapeSoql(id) + "'"
	}
	soql := fmt.Sprintf(
		"SELECT %s FROM Account WHERE Id IN (%s)",
		strings.Join(accountFields, ", "),
		strings.Join(quoted, ", "),
	)

	var accounts []Account
	if err := c.Query(ctx, soql, &accounts); err != nil {
		return nil, eris.Wrap(err, "sf: find accounts by id")
	}
	return accounts, nil
}

// escapeSoql escapes single quotes in SOQL string literals to prevent injection.
func escapeSoql(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}

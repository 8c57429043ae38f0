package workflows

import (
	"context"
	"sort"
)

// PrincipalStatus represents a principal's standing in the vault.
type PrincipalStatus string

const (
	// PrincipalStatusActive means the principal has a published key and
	// receives at least one partition.
	PrincipalStatusActive PrincipalStatus = "active"
	// PrincipalStatusPending means the principal has a published key but
	// no partition yet.
	PrincipalStatusPending PrincipalStatus = "pending"
	// PrincipalStatusKeyless means the principal is configured but has not
	// published a key, so no envelope can include them.
	PrincipalStatusKeyless PrincipalStatus = "keyless"
)

// PrincipalAccessInfo holds one principal's entitlements.
type PrincipalAccessInfo struct {
	// UUID is the principal's unique identifier.
	UUID string

	// Email is the principal's email address.
	Email string

	// Admin indicates the principal receives every partition by role.
	Admin bool

	// Partitions lists the partitions the principal can read, sorted.
	// Admins list every partition.
	Partitions []string

	// Status is the principal's standing.
	Status PrincipalStatus
}

// AccessSummary holds counts of principals by status.
type AccessSummary struct {
	// Active is the count of principals who can read something.
	Active int

	// Pending is the count of principals awaiting a partition.
	Pending int

	// Keyless is the count of principals without a published key.
	Keyless int
}

// AccessOptions configures the access workflow.
type AccessOptions struct {
	// Partition limits the listing to principals of one partition.
	Partition string

	// File is a sealed file; when set, the listing covers the principals
	// actually wrapped in that envelope rather than the config's view.
	// The two can disagree between a membership change and its rewrap.
	File string
}

// AccessResult contains the outcome of an access operation.
type AccessResult struct {
	// VaultName is the name of the vault.
	VaultName string

	// Principals contains information about each principal.
	Principals []PrincipalAccessInfo

	// Summary contains counts of principals by status.
	Summary AccessSummary
}

// Access lists the vault's principals and what each one can read.
//
// The listing reflects the vault config joined with the published keys:
// a principal without a published key is flagged, because no envelope can
// be sealed for them regardless of what the config says.
//
// Returns ErrVaultNotInitialized if there is no vault here.
// Returns ErrEnvelopeMalformed if File is set and cannot be decoded.
func Access(ctx context.Context, opts AccessOptions) (*AccessResult, error) {
	_, _, vaultConfig, err := loadVaultContext()
	if err != nil {
		return nil, err
	}

	var wrapped map[string]bool
	if opts.File != "" {
		env, err := readEnvelope(opts.File)
		if err != nil {
			return nil, err
		}
		wrapped = make(map[string]bool)
		for _, id := range env.Recipients() {
			wrapped[id] = true
		}
	}

	directory := vaultDirectory(vaultConfig)

	partitionsByPrincipal := make(map[string][]string)
	for name, partition := range vaultConfig.Partitions {
		for _, id := range partition.Curators {
			partitionsByPrincipal[id] = append(partitionsByPrincipal[id], name)
		}
	}

	allPartitions := make([]string, 0, len(vaultConfig.Partitions))
	for name := range vaultConfig.Partitions {
		allPartitions = append(allPartitions, name)
	}
	sort.Strings(allPartitions)

	var principals []PrincipalAccessInfo
	for id, email := range vaultConfig.Principals {
		info := PrincipalAccessInfo{
			UUID:  id,
			Email: email,
			Admin: vaultConfig.IsAdmin(id),
		}

		if info.Admin {
			info.Partitions = allPartitions
		} else {
			info.Partitions = partitionsByPrincipal[id]
			sort.Strings(info.Partitions)
		}

		switch {
		case !directory.HasPublishedKey(id):
			info.Status = PrincipalStatusKeyless
		case len(info.Partitions) > 0:
			info.Status = PrincipalStatusActive
		default:
			info.Status = PrincipalStatusPending
		}

		if opts.Partition != "" && !containsString(info.Partitions, opts.Partition) {
			continue
		}
		if wrapped != nil {
			if !wrapped[id] {
				continue
			}
			delete(wrapped, id)
		}

		principals = append(principals, info)
	}

	// Envelope recipients the config no longer knows, e.g. after a revoke
	// whose rewrap has not happened yet.
	for id := range wrapped {
		info := PrincipalAccessInfo{UUID: id, Status: PrincipalStatusKeyless}
		if directory.HasPublishedKey(id) {
			info.Status = PrincipalStatusActive
		}
		principals = append(principals, info)
	}

	sortPrincipals(principals)

	return &AccessResult{
		VaultName:  vaultConfig.Vault.Name,
		Principals: principals,
		Summary:    summarizeAccess(principals),
	}, nil
}

// sortPrincipals orders by status (active, pending, keyless), then email.
func sortPrincipals(principals []PrincipalAccessInfo) {
	rank := map[PrincipalStatus]int{
		PrincipalStatusActive:  0,
		PrincipalStatusPending: 1,
		PrincipalStatusKeyless: 2,
	}
	sort.Slice(principals, func(i, j int) bool {
		if rank[principals[i].Status] != rank[principals[j].Status] {
			return rank[principals[i].Status] < rank[principals[j].Status]
		}
		return principals[i].Email < principals[j].Email
	})
}

func summarizeAccess(principals []PrincipalAccessInfo) AccessSummary {
	var summary AccessSummary
	for _, p := range principals {
		switch p.Status {
		case PrincipalStatusActive:
			summary.Active++
		case PrincipalStatusPending:
			summary.Pending++
		case PrincipalStatusKeyless:
			summary.Keyless++
		}
	}
	return summary
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

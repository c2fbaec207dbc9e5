package auth

import (
	"sort"
	"strings"
)

// Permission keys define the closed permission catalog.
// Keys use resource.action format and are the only values that may appear in
// role or membership permission sets; anything outside the catalog is rejected
// at construction time, not silently evaluated to false at check time.
const (
	// PermDashboardView allows viewing the tenant dashboard.
	PermDashboardView = "dashboard.view"

	// PermCustomersView allows viewing customer records.
	PermCustomersView = "customers.view"
	// PermCustomersCreate allows creating customer records.
	PermCustomersCreate = "customers.create"
	// PermCustomersEdit allows editing customer records.
	PermCustomersEdit = "customers.edit"
	// PermCustomersDelete allows deleting customer records.
	PermCustomersDelete = "customers.delete"

	// PermInventoryView allows viewing inventory items and stock levels.
	PermInventoryView = "inventory.view"
	// PermInventoryCreate allows creating inventory items.
	PermInventoryCreate = "inventory.create"
	// PermInventoryEdit allows editing inventory items.
	PermInventoryEdit = "inventory.edit"
	// PermInventoryDelete allows deleting inventory items.
	PermInventoryDelete = "inventory.delete"
	// PermInventoryAdjust allows posting stock adjustments.
	PermInventoryAdjust = "inventory.adjust"

	// PermSalesView allows viewing receipts and sales history.
	PermSalesView = "sales.view"
	// PermSalesCreate allows ringing up sales at the point of sale.
	PermSalesCreate = "sales.create"
	// PermSalesRefund allows issuing refunds.
	PermSalesRefund = "sales.refund"

	// PermEmployeesView allows viewing employee records.
	PermEmployeesView = "employees.view"
	// PermEmployeesCreate allows creating employee records.
	PermEmployeesCreate = "employees.create"
	// PermEmployeesEdit allows editing employee records.
	PermEmployeesEdit = "employees.edit"
	// PermEmployeesDelete allows deleting employee records.
	PermEmployeesDelete = "employees.delete"

	// PermReportsView allows viewing reports.
	PermReportsView = "reports.view"

	// PermAdminSettings allows managing tenant-wide settings.
	PermAdminSettings = "admin.settings"
	// PermAdminRoles allows managing roles and their permissions.
	PermAdminRoles = "admin.roles"
	// PermAdminMembers allows managing tenant memberships.
	PermAdminMembers = "admin.members"
	// PermAdminTenant allows managing the tenant record itself.
	PermAdminTenant = "admin.tenant"
	// PermAdminAudit allows reading the audit trail.
	PermAdminAudit = "admin.audit"
)

// catalog maps every permission key to its one-line description.
// The map is the single source of truth for key validity.
var catalog = map[string]string{
	PermDashboardView:   "View the tenant dashboard",
	PermCustomersView:   "View customer records",
	PermCustomersCreate: "Create customer records",
	PermCustomersEdit:   "Edit customer records",
	PermCustomersDelete: "Delete customer records",
	PermInventoryView:   "View inventory items and stock levels",
	PermInventoryCreate: "Create inventory items",
	PermInventoryEdit:   "Edit inventory items",
	PermInventoryDelete: "Delete inventory items",
	PermInventoryAdjust: "Post stock adjustments",
	PermSalesView:       "View receipts and sales history",
	PermSalesCreate:     "Ring up sales at the point of sale",
	PermSalesRefund:     "Issue refunds",
	PermEmployeesView:   "View employee records",
	PermEmployeesCreate: "Create employee records",
	PermEmployeesEdit:   "Edit employee records",
	PermEmployeesDelete: "Delete employee records",
	PermReportsView:     "View reports",
	PermAdminSettings:   "Manage tenant-wide settings",
	PermAdminRoles:      "Manage roles and their permissions",
	PermAdminMembers:    "Manage tenant memberships",
	PermAdminTenant:     "Manage the tenant record itself",
	PermAdminAudit:      "Read the audit trail",
}

// Catalog returns a copy of the permission catalog (key to description).
func Catalog() map[string]string {
	out := make(map[string]string, len(catalog))
	for k, v := range catalog {
		out[k] = v
	}

	return out
}

// CatalogKeys returns all permission keys in sorted order.
func CatalogKeys() []string {
	keys := make([]string, 0, len(catalog))
	for k := range catalog {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// ValidKey reports whether key belongs to the permission catalog.
func ValidKey(key string) bool {
	_, ok := catalog[key]
	return ok
}

// Describe returns the description for a permission key, empty when unknown.
func Describe(key string) string {
	return catalog[key]
}

// Resource returns the resource half of a permission key.
func Resource(key string) string {
	if i := strings.IndexByte(key, '.'); i >= 0 {
		return key[:i]
	}

	return key
}

// Action returns the action half of a permission key, empty when the key has
// no dot.
func Action(key string) string {
	if i := strings.IndexByte(key, '.'); i >= 0 {
		return key[i+1:]
	}

	return ""
}

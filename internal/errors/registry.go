package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://toyreact.dev/docs/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// DOM Errors (E101-E199)
	// ============================================

	"E101": {
		Category: CategoryDOM,
		Message:  "Range boundary offset out of bounds",
		Detail:   "A range boundary must lie between 0 and the length of its container.",
		DocURL:   docBase + "E101",
	},
	"E102": {
		Category: CategoryDOM,
		Message:  "Range spans more than one container",
		Detail:   "Contents can only be deleted from ranges whose start and end share a container.",
		DocURL:   docBase + "E102",
	},
	"E103": {
		Category: CategoryDOM,
		Message:  "Text node used as range container",
		Detail:   "Ranges used for rendering must be anchored in element or document nodes.",
		DocURL:   docBase + "E103",
	},
	"E104": {
		Category: CategoryDOM,
		Message:  "Hierarchy request error",
		Detail:   "A node cannot be inserted into its own subtree.",
		DocURL:   docBase + "E104",
	},
	"E105": {
		Category: CategoryDOM,
		Message:  "Range is detached",
		Detail:   "The range was detached from its document and can no longer be used.",
		DocURL:   docBase + "E105",
	},
	"E106": {
		Category: CategoryDOM,
		Message:  "Nil node",
		Detail:   "A document operation received a nil node.",
		DocURL:   docBase + "E106",
	},

	// ============================================
	// Render Errors (E201-E299)
	// ============================================

	"E201": {
		Category: CategoryRender,
		Message:  "Component rendered nothing",
		Detail:   "Render must return a node built with H or Text.",
		DocURL:   docBase + "E201",
	},
	"E202": {
		Category: CategoryRender,
		Message:  "Component is not mounted",
		Detail:   "Rerender needs the region remembered from the first mount.",
		DocURL:   docBase + "E202",
	},
	"E203": {
		Category: CategoryRender,
		Message:  "Unsupported type descriptor",
		Detail:   "H accepts a tag name string or a ui.Factory.",
		DocURL:   docBase + "E203",
	},
	"E204": {
		Category: CategoryRender,
		Message:  "Unsupported child value",
		Detail:   "Children must be strings, nodes, nil, or slices of those.",
		DocURL:   docBase + "E204",
	},
	"E205": {
		Category: CategoryRender,
		Message:  "Event handler is not a function",
		Detail:   "Attributes named on<Event> must hold a dom.Listener, func(*dom.Event) or func().",
		DocURL:   docBase + "E205",
	},
	"E206": {
		Category: CategoryRender,
		Message:  "Mount container is nil",
		DocURL:   docBase + "E206",
	},
	"E207": {
		Category: CategoryRender,
		Message:  "Component has no builder",
		Detail:   "Components must be created through Builder.H or mounted with Builder.Mount before they can build children.",
		DocURL:   docBase + "E207",
	},

	// ============================================
	// State Errors (E301-E399)
	// ============================================

	"E301": {
		Category: CategoryState,
		Message:  "State update failed",
		DocURL:   docBase + "E301",
	},

	// ============================================
	// Config Errors (E401-E499)
	// ============================================

	"E401": {
		Category: CategoryConfig,
		Message:  "Failed to parse configuration",
		DocURL:   docBase + "E401",
	},
	"E402": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		DocURL:   docBase + "E402",
	},
	"E403": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		DocURL:   docBase + "E403",
	},

	// ============================================
	// CLI Errors (E501-E599)
	// ============================================

	"E501": {
		Category: CategoryCLI,
		Message:  "Unknown demo application",
		DocURL:   docBase + "E501",
	},

	// ============================================
	// Preview Errors (E601-E699)
	// ============================================

	"E601": {
		Category: CategoryPreview,
		Message:  "Unknown event target",
		Detail:   "No element carries the requested hydration id.",
		DocURL:   docBase + "E601",
	},
	"E602": {
		Category: CategoryPreview,
		Message:  "Malformed event message",
		DocURL:   docBase + "E602",
	},

	// ============================================
	// Publish Errors (E701-E799)
	// ============================================

	"E701": {
		Category: CategoryPublish,
		Message:  "Snapshot upload failed",
		DocURL:   docBase + "E701",
	},
	"E702": {
		Category: CategoryPublish,
		Message:  "Publish target not configured",
		Detail:   "A bucket name is required to publish snapshots.",
		DocURL:   docBase + "E702",
	},

	// ============================================
	// History Errors (E801-E899)
	// ============================================

	"E801": {
		Category: CategoryHistory,
		Message:  "Snapshot history unavailable",
		Detail:   "The history file must be writable and not held open by another toyreact process.",
		DocURL:   docBase + "E801",
	},
	"E802": {
		Category: CategoryHistory,
		Message:  "Snapshot not found",
		DocURL:   docBase + "E802",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

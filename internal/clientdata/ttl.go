package clientdata

import "time"

// DefaultQuoteTTL is how long a pushed quote counts as fresh. Stale quotes are
// still served until the cleanup job removes them.
const DefaultQuoteTTL = 15 * time.Minute

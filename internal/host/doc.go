// Package host is the in-process routing host that scripts are loaded into.
//
// It owns the live state a loaded script can mutate: the component registry
// (with a type registry backing `components.make`), a bean registry, the
// property resolver and the route table. Route definitions are modelled, not
// executed. A Context runs its startup hooks exactly once from Start, which is
// where the script loader plugs in.
package host

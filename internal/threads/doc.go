// Package threads reconstructs nested comment trees from the flat,
// depth-bounded rows the database returns. Assembly is a pure O(n)
// transformation; ordering is decided before assembly and sibling order is
// preserved exactly.
package threads

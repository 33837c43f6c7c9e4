package layout

import "github.com/matzehuels/kintree/pkg/family"

// Point is a position in layout space. Y grows downwards.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a positioned person box. X and Y are the top-left corner.
type Node struct {
	PersonID   string  `json:"id"`
	Generation int     `json:"generation"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	BoxWidth   float64 `json:"width"`
	BoxHeight  float64 `json:"height"`
	IsFocus    bool    `json:"focus,omitempty"`

	// PartnerID is the spouse this node is paired with in its row, if any.
	PartnerID string `json:"partner_id,omitempty"`

	Person family.Person `json:"person"`
}

// Right returns the x coordinate of the right edge.
func (n Node) Right() float64 { return n.X + n.BoxWidth }

// Bottom returns the y coordinate of the bottom edge.
func (n Node) Bottom() float64 { return n.Y + n.BoxHeight }

// CenterX returns the horizontal centre.
func (n Node) CenterX() float64 { return n.X + n.BoxWidth/2 }

// CenterY returns the vertical centre.
func (n Node) CenterY() float64 { return n.Y + n.BoxHeight/2 }

// TopCenter is where parent connectors enter the box.
func (n Node) TopCenter() Point { return Point{X: n.CenterX(), Y: n.Y} }

// BottomCenter is where connectors to children leave the box.
func (n Node) BottomCenter() Point { return Point{X: n.CenterX(), Y: n.Bottom()} }

// ConnectionKind distinguishes parent-child connectors from marriage lines.
type ConnectionKind string

const (
	KindParentChild ConnectionKind = "parent-child"
	KindMarriage    ConnectionKind = "marriage"
)

// Connection is a routed connector.
//
// Parent-child connectors carry ParentID and ChildID and a four-point
// orthogonal Path. Marriage connectors carry LeftID and RightID and a
// two-point horizontal Path.
type Connection struct {
	Kind     ConnectionKind `json:"kind"`
	Source   Point          `json:"source"`
	Target   Point          `json:"target"`
	Path     []Point        `json:"path"`
	ParentID string         `json:"parent_id,omitempty"`
	ChildID  string         `json:"child_id,omitempty"`
	LeftID   string         `json:"left_id,omitempty"`
	RightID  string         `json:"right_id,omitempty"`
}

// Marriage is a co-located couple, Left before Right in row order.
type Marriage struct {
	Left  Node `json:"left"`
	Right Node `json:"right"`
}

// Bounds is the size of the drawing including the margin.
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Diagnostics reports data-quality signals collected during a run. None of
// them are fatal.
type Diagnostics struct {
	// Converged is false when generation stabilization hit its pass limit.
	Converged bool `json:"converged"`

	// Passes is the number of stabilization passes.
	Passes int `json:"passes"`

	// Skipped counts input records dropped as invalid or duplicate.
	Skipped int `json:"skipped,omitempty"`

	// Severed lists parent links ignored because they form a cycle.
	Severed []family.Link `json:"severed,omitempty"`

	// UnresolvedFocus is set when a focus was requested for an unknown id.
	UnresolvedFocus bool `json:"unresolved_focus,omitempty"`

	// Seeds lists the people that started generation traversal.
	Seeds []string `json:"seeds,omitempty"`
}

// Result is the output of one layout run. Every coordinate shares one
// space and can be drawn directly.
type Result struct {
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections"`
	Marriages   []Marriage   `json:"marriages"`
	Bounds      Bounds       `json:"bounds"`
	Focus       string       `json:"focus,omitempty"`
	Diagnostics Diagnostics  `json:"diagnostics"`
}

// Node returns the node of the given person.
func (r Result) Node(id string) (Node, bool) {
	for _, n := range r.Nodes {
		if n.PersonID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Generations returns the number of generation rows.
func (r Result) Generations() int {
	g := 0
	for _, n := range r.Nodes {
		g = max(g, n.Generation+1)
	}
	return g
}

// Rows groups the nodes by generation, each row in left-to-right order.
func (r Result) Rows() [][]Node {
	rows := make([][]Node, r.Generations())
	for _, n := range r.Nodes {
		rows[n.Generation] = append(rows[n.Generation], n)
	}
	return rows
}

package reflection

// Visitor receives the nodes of a module tree. Modules and types are
// bracketed by Begin/End calls; everything else is a single callback.
type Visitor interface {
	ModuleBegin(m *ModuleDetails)
	ModuleEnd(m *ModuleDetails)
	TypeBegin(t *TypeDetails)
	TypeEnd(t *TypeDetails)
	Function(f *FunctionDetails)
	Variable(v *VariableDetails)
	EnumValue(t *TypeDetails, name string, value int64)
}

// BaseVisitor implements Visitor with no-op methods. Embed it to handle
// only the nodes you care about.
type BaseVisitor struct{}

func (BaseVisitor) ModuleBegin(*ModuleDetails)            {}
func (BaseVisitor) ModuleEnd(*ModuleDetails)              {}
func (BaseVisitor) TypeBegin(*TypeDetails)                {}
func (BaseVisitor) TypeEnd(*TypeDetails)                  {}
func (BaseVisitor) Function(*FunctionDetails)             {}
func (BaseVisitor) Variable(*VariableDetails)             {}
func (BaseVisitor) EnumValue(*TypeDetails, string, int64) {}

var _ Visitor = BaseVisitor{}

package objects

// Entity identifies one of the record families the engine caches and mutates.
type Entity string

const (
	EntityStudents     Entity = "students"
	EntityContacts     Entity = "contacts"
	EntityInteractions Entity = "interactions"
	EntityCategories   Entity = "categories"
	EntityReports      Entity = "reports"
)

// Values returns all entities the engine knows about.
func (Entity) Values() []Entity {
	return []Entity{
		EntityStudents,
		EntityContacts,
		EntityInteractions,
		EntityCategories,
		EntityReports,
	}
}

func (e Entity) String() string {
	return string(e)
}

// Op is the kind of a mutation against an entity.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

func (o Op) String() string {
	return string(o)
}

package graphql

// Entity describes how one remote record type is queried.
type Entity struct {
	Name       string // GraphQL type name, e.g. "Project"
	Plural     string // used for operation names
	Collection string // collection root field
	Single     string // single-record root field
	FilterType string
	Fields     []string // default projection

	// SearchFields are matched case-insensitively by a search request.
	SearchFields []string
	// Filterable lists the operators accepted per remote field.
	Filterable map[string][]Operator

	CreateRoot  string
	CreateInput string
	CloseRoot   string
}

var (
	ProjectEntity = Entity{
		Name:         "Project",
		Plural:       "Projects",
		Collection:   "projects",
		Single:       "project",
		FilterType:   "ProjectFilter",
		Fields:       []string{"ident", "name", "description", "status", "startDate", "endDate", "staffIdents", "equipmentIdents"},
		SearchFields: []string{"name", "description"},
		Filterable: map[string][]Operator{
			"ident":       {OpEqual},
			"status":      {OpEqual},
			"name":        {OpEqual, OpContains},
			"description": {OpContains},
			"startDate":   {OpEqual, OpRange},
			"endDate":     {OpEqual, OpRange},
		},
	}

	PersonEntity = Entity{
		Name:         "Person",
		Plural:       "Persons",
		Collection:   "persons",
		Single:       "person",
		FilterType:   "PersonFilter",
		Fields:       []string{"ident", "name", "role", "active", "email", "projectIdents"},
		SearchFields: []string{"name", "role"},
		Filterable: map[string][]Operator{
			"ident":        {OpEqual},
			"role":         {OpEqual, OpContains},
			"active":       {OpEqual},
			"name":         {OpEqual, OpContains},
			"projectIdent": {OpEqual},
		},
	}

	EquipmentEntity = Entity{
		Name:         "Equipment",
		Plural:       "Equipments",
		Collection:   "equipments",
		Single:       "equipment",
		FilterType:   "EquipmentFilter",
		Fields:       []string{"ident", "name", "type", "status", "location", "projectIdent", "personIdent", "maintenance { date description }"},
		SearchFields: []string{"name", "type"},
		Filterable: map[string][]Operator{
			"ident":        {OpEqual},
			"status":       {OpEqual},
			"type":         {OpEqual, OpContains},
			"location":     {OpEqual, OpContains},
			"name":         {OpEqual, OpContains},
			"projectIdent": {OpEqual},
			"personIdent":  {OpEqual},
		},
	}

	StaffTimeEntity = Entity{
		Name:       "StaffTime",
		Plural:     "StaffTimes",
		Collection: "staffTimes",
		Single:     "staffTime",
		FilterType: "StaffTimeFilter",
		Fields:     []string{"ident", "personIdent", "projectIdent", "description", "start", "end"},
		Filterable: map[string][]Operator{
			"ident":        {OpEqual},
			"personIdent":  {OpEqual},
			"projectIdent": {OpEqual},
			"running":      {OpEqual},
			"start":        {OpRange},
			"end":          {OpRange},
		},
		CreateRoot:  "startStaffTime",
		CreateInput: "StartStaffTimeInput",
		CloseRoot:   "stopStaffTime",
	}

	TicketEntity = Entity{
		Name:         "Ticket",
		Plural:       "Tickets",
		Collection:   "tickets",
		Single:       "ticket",
		FilterType:   "TicketFilter",
		Fields:       []string{"ident", "title", "description", "status", "priority", "projectIdent"},
		SearchFields: []string{"title", "description"},
		Filterable: map[string][]Operator{
			"ident":        {OpEqual},
			"status":       {OpEqual},
			"priority":     {OpEqual},
			"projectIdent": {OpEqual},
		},
	}

	PlanningEntity = Entity{
		Name:       "Planning",
		Plural:     "Plannings",
		Collection: "plannings",
		Single:     "planning",
		FilterType: "PlanningFilter",
		Fields:     []string{"ident", "projectIdent", "milestone", "status", "plannedDate", "description"},
		Filterable: map[string][]Operator{
			"ident":        {OpEqual},
			"status":       {OpEqual},
			"projectIdent": {OpEqual},
			"plannedDate":  {OpRange},
		},
	}
)

func (e Entity) allows(field string, op Operator) bool {
	for _, allowed := range e.Filterable[field] {
		if allowed == op {
			return true
		}
	}
	return false
}

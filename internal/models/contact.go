package models

// DefaultContactTable is the hosted table receiving relayed submissions.
const DefaultContactTable = "contacto"

// Contact is one row of the hosted contact table.
type Contact struct {
	Nombre     string `gorm:"column:nombre;size:100" json:"nombre"`
	Apellido   string `gorm:"column:apellido;size:100" json:"apellido"`
	Email      string `gorm:"column:email;size:200" json:"email"`
	Telefono   string `gorm:"column:telefono;size:15" json:"telefono"`
	Disciplina string `gorm:"column:disciplina;size:50" json:"disciplina"`
	Mensaje    string `gorm:"column:mensaje;type:text" json:"mensaje"`
}

// TableName implements gorm's tabler for the default table.
func (Contact) TableName() string {
	return DefaultContactTable
}

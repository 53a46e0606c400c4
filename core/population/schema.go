package population

import "strconv"

// Output column names. Downstream feature assembly depends on these exact
// names and on the order of Columns.
const (
	ColAge              = "age"
	ColSex              = "sexe"
	ColMilieu           = "milieu"
	ColMaritalStatus    = "etat_matrimonial"
	ColRegion           = "region"
	ColEducation        = "niveau_education"
	ColGroup            = "categorie_socioprofessionnelle"
	ColHouseholdSize    = "taille_foyer"
	ColSocialAid        = "aide_sociale"
	ColCreditAccess     = "a_acces_credit"
	ColRetired          = "a_retraite"
	ColOwnsCar          = "possede_voiture"
	ColOwnsHome         = "possede_logement"
	ColOwnsLand         = "possede_terrain"
	ColAgeCategory      = "categorie_age"
	ColExperience       = "annees_experience"
	ColIncome           = "revenu_annuel"
	ColAgeMonths        = "age_en_mois"
	ColIsUrban          = "est_urbain"
	ColIsMarried        = "est_marie"
	ColUserID           = "id_utilisateur"
	ColRegistrationDate = "date_enregistrement"
	ColPostalCode       = "code_postal"
)

// Columns returns the output header in its stable order.
func Columns() []string {
	return []string{
		ColAge, ColSex, ColMilieu, ColMaritalStatus, ColRegion,
		ColEducation, ColGroup, ColHouseholdSize, ColSocialAid, ColCreditAccess,
		ColRetired, ColOwnsCar, ColOwnsHome, ColOwnsLand, ColAgeCategory,
		ColExperience, ColIncome, ColAgeMonths, ColIsUrban, ColIsMarried,
		ColUserID, ColRegistrationDate, ColPostalCode,
	}
}

// Record renders ind as one output row matching Columns. Masked fields are
// rendered as empty cells.
func (ind *Individual) Record() []string {
	missing := func(f Field, v string) string {
		if ind.Missing.Has(f) {
			return ""
		}
		return v
	}
	return []string{
		strconv.Itoa(ind.Age),
		ind.Sex.String(),
		ind.Milieu.String(),
		ind.MaritalStatus.String(),
		ind.Region.String(),
		missing(FieldEducation, ind.Education.String()),
		ind.Group.String(),
		missing(FieldHouseholdSize, strconv.Itoa(ind.HouseholdSize)),
		flag(ind.SocialAid),
		flag(ind.CreditAccess),
		flag(ind.Retired),
		missing(FieldOwnsCar, flag(ind.OwnsCar)),
		missing(FieldOwnsHome, flag(ind.OwnsHome)),
		flag(ind.OwnsLand),
		ind.AgeCategory.String(),
		missing(FieldExperience, strconv.Itoa(ind.Experience)),
		strconv.Itoa(ind.Income),
		strconv.Itoa(ind.AgeMonths),
		flag(ind.IsUrban),
		flag(ind.IsMarried),
		strconv.Itoa(ind.ID),
		ind.RegistrationDate,
		strconv.Itoa(ind.PostalCode),
	}
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

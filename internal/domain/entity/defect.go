package entity

// UnknownClassName подпись для индекса, которого нет в таблице классов
const UnknownClassName = "Bilinmeyen"

// CategoryAll значение фильтра истории, не ограничивающее категорию
const CategoryAll = "Tümü"

// DefectClass класс дефекта, который возвращает удалённая модель
type DefectClass struct {
	Index int    `json:"index"` // позиция в векторе уверенностей модели
	Name  string `json:"name"`  // локализованное название класса
}

// ClassTable упорядоченный список названий классов.
// Порядок обязан совпадать с порядком выходов модели: ответ сервиса позиционный.
type ClassTable []string

// DefaultClassTable таблица классов эталонной модели поверхностных дефектов.
var DefaultClassTable = ClassTable{
	"Çatlama",
	"Kapsama",
	"Yamalar",
	"Çukur Yüzey",
	"Hadde Kabukları",
	"Çizikler",
}

// NameFor возвращает название класса или UnknownClassName для индекса вне таблицы.
func (t ClassTable) NameFor(index int) string {
	if index < 0 || index >= len(t) {
		return UnknownClassName
	}
	return t[index]
}

// Classes возвращает классы таблицы вместе с индексами
func (t ClassTable) Classes() []DefectClass {
	classes := make([]DefectClass, 0, len(t))
	for i, name := range t {
		classes = append(classes, DefectClass{Index: i, Name: name})
	}
	return classes
}

// FilterOptions возвращает варианты фильтра истории: CategoryAll и затем все классы.
func (t ClassTable) FilterOptions() []string {
	options := make([]string, 0, len(t)+1)
	options = append(options, CategoryAll)
	return append(options, t...)
}

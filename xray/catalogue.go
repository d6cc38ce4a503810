package xray

import "fmt"

// catalogue is the fixed ordered set of candidate conditions. Order is the
// positional identity of each record and never changes at runtime; it
// carries no ranking semantics.
var catalogue = []ConditionRecord{
	{"Atelectasis", "肺不张", "肺组织塌陷导致体积缩小，表现为密度增高影及纵隔移位"},
	{"Consolidation", "肺实变", "肺泡腔内充满渗出物，呈均匀致密影，可见支气管气像"},
	{"Infiltration", "肺部浸润", "肺实质内炎性渗出，表现为模糊的密度增高影"},
	{"Pneumothorax", "气胸", "胸膜腔内积气，肺组织受压萎缩"},
	{"Edema", "肺水肿", "肺间质及肺泡内液体积聚，双肺蝶翼状模糊影"},
	{"Emphysema", "肺气肿", "肺组织过度充气，透亮度增加，膈肌低平"},
	{"Fibrosis", "肺纤维化", "肺组织纤维组织增生，网状条索状影"},
	{"Pneumonia", "肺炎", "肺实质炎症，表现为斑片状或大片状密度增高影"},
	{"Lung Nodule", "肺结节", "肺内类圆形密度增高影，直径≤3cm"},
	{"Lung Mass", "肺部肿块", "肺内占位性病变，直径>3cm，边缘可不规则"},
	{"Tuberculosis", "肺结核", "结核分枝杆菌感染，好发上叶尖后段，斑点条索钙化灶"},
	{"COPD", "慢性阻塞性肺病", "气道慢性炎症导致气流受限，肺过度充气"},
	{"Bronchitis", "支气管炎", "支气管壁增厚，肺纹理增多增粗"},
	{"Lung Opacity", "肺部阴影", "泛指肺内各种密度增高影"},
	{"Cardiomegaly", "心脏增大", "心影增大，心胸比>0.5，提示心脏器质性病变"},
	{"Aortic Enlargement", "主动脉增宽", "主动脉迂曲扩张，提示动脉硬化或高血压"},
	{"Calcification", "血管钙化", "血管壁或瓣膜钙质沉着"},
	{"Pericardial Effusion", "心包积液", "心包腔内液体积聚，心影呈烧瓶样增大"},
	{"Pleural Effusion", "胸腔积液", "胸膜腔内液体积聚，肋膈角变钝消失"},
	{"Pleural Thickening", "胸膜增厚", "胸膜纤维化增厚，可呈板状致密影"},
	{"Mediastinal Widening", "纵隔增宽", "纵隔影增宽，需排除淋巴结肿大或肿瘤"},
	{"Hernia", "膈疝", "腹腔脏器经膈肌缺损突入胸腔"},
	{"Fracture", "骨折", "骨质连续性中断，可见骨折线或碎骨片"},
	{"Dislocation", "关节脱位", "关节面失去正常对合关系"},
	{"Osteoporosis", "骨质疏松", "骨密度弥漫性减低，骨皮质变薄"},
	{"Osteoarthritis", "骨关节炎", "关节间隙狭窄，骨赘形成，软骨下骨硬化"},
	{"Scoliosis", "脊柱侧弯", "脊柱偏离中线，呈C形或S形弯曲"},
	{"Spondylosis", "脊椎病", "椎体骨赘增生，椎间隙变窄"},
	{"Bone Tumor", "骨肿瘤", "骨质破坏或异常骨质增生，边界可不规则"},
	{"Osteomyelitis", "骨髓炎", "骨质破坏伴骨膜反应及软组织肿胀"},
	{"Subcutaneous Emphysema", "皮下气肿", "皮下软组织内积气，呈条状透亮影"},
	{"Foreign Body", "异物", "气道或消化道内异常致密影"},
	{"Normal", "正常", "未见明显异常表现"},
	{"ILD", "间质性肺病", "肺间质弥漫性病变，网格影、磨玻璃影"},
	{"Bronchiectasis", "支气管扩张", "支气管管腔不可逆性扩张"},
	{"Lung Abscess", "肺脓肿", "肺实质化脓性坏死，厚壁空洞伴液平"},
	{"Pulmonary Hypertension", "肺动脉高压", "肺动脉段突出，右心室增大"},
	{"Rib Fracture", "肋骨骨折", "肋骨皮质连续性中断"},
	{"Cervical Rib", "颈肋", "第七颈椎横突过长或发育为肋骨"},
	{"Spinal Compression Fracture", "脊椎压缩骨折", "椎体高度减低，楔形变"},
	{"Soft Tissue Mass", "软组织肿块", "软组织内占位性病变"},
	{"Lymphadenopathy", "淋巴结肿大", "纵隔或肺门淋巴结增大"},
	{"Pneumomediastinum", "纵隔气肿", "纵隔内积气，沿筋膜间隙分布"},
	{"Diaphragm Elevation", "膈肌抬高", "单侧或双侧膈肌位置高于正常"},
	{"Tracheal Deviation", "气管移位", "气管偏离中线，提示纵隔或胸腔病变"},
}

// Catalogue returns the condition catalogue. Callers must not modify the
// returned slice.
func Catalogue() []ConditionRecord {
	return catalogue
}

// CatalogueSize returns the number of candidate conditions.
func CatalogueSize() int {
	return len(catalogue)
}

// promptText builds the zero-shot text prompt for one record.
func promptText(r ConditionRecord) string {
	return fmt.Sprintf("An X-ray showing %s: %s", r.Code, r.Description)
}
